package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	infoLogger  *log.Logger
	errorLogger *log.Logger
	warnLogger  *log.Logger
	debugLogger *log.Logger
	logFile     *os.File
)

// InitLogger 初始化日志系统（写入指定目录 + 控制台）
// dir 为空或不可写时退化为仅控制台输出，不报错（netmonctl 常以普通用户运行）
func InitLogger(dir string) error {
	var w io.Writer = os.Stdout

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err == nil {
			logPath := filepath.Join(dir, "netmond.log")
			// 打开日志文件（追加模式）
			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err == nil {
				logFile = file
				w = io.MultiWriter(os.Stdout, logFile)
			}
		}
	}

	// 初始化不同级别的日志记录器
	infoLogger = log.New(w, "[INFO] ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(w, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
	warnLogger = log.New(w, "[WARN] ", log.Ldate|log.Ltime|log.Lshortfile)
	debugLogger = log.New(w, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)

	return nil
}

// Info 记录信息日志
func Info(format string, v ...interface{}) {
	if infoLogger != nil {
		infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Error 记录错误日志
func Error(format string, v ...interface{}) {
	if errorLogger != nil {
		errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warn 记录警告日志
func Warn(format string, v ...interface{}) {
	if warnLogger != nil {
		warnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Debug 记录调试日志
func Debug(format string, v ...interface{}) {
	if debugLogger != nil {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Fatal 记录错误日志后退出进程
func Fatal(format string, v ...interface{}) {
	if errorLogger != nil {
		errorLogger.Output(2, fmt.Sprintf(format, v...))
	} else {
		log.Printf(format, v...)
	}
	Close()
	os.Exit(1)
}

// Close 关闭日志文件
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// RotateLog 日志轮转（按大小）
func RotateLog(dir string, maxSize int64) error {
	if logFile == nil {
		return nil
	}

	stat, err := logFile.Stat()
	if err != nil {
		return err
	}

	if stat.Size() >= maxSize {
		logFile.Close()

		oldPath := filepath.Join(dir, "netmond.log")
		newPath := filepath.Join(dir, fmt.Sprintf("netmond.%s.log", time.Now().Format("20060102-150405")))
		os.Rename(oldPath, newPath)

		file, err := os.OpenFile(oldPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		logFile = file

		multiWriter := io.MultiWriter(os.Stdout, logFile)
		infoLogger.SetOutput(multiWriter)
		errorLogger.SetOutput(multiWriter)
		warnLogger.SetOutput(multiWriter)
		debugLogger.SetOutput(multiWriter)
	}

	return nil
}
