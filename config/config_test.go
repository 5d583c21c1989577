package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_WritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmond.json")
	t.Setenv("NETMOND_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.SeriesCapacity != 20 {
		t.Fatalf("expected default series capacity 20, got %d", cfg.Client.SeriesCapacity)
	}
	if cfg.Client.ReconnectDelaySeconds != 5 {
		t.Fatalf("expected default reconnect delay 5, got %d", cfg.Client.ReconnectDelaySeconds)
	}
	if cfg.Client.PollIntervalSeconds != 30 {
		t.Fatalf("expected default poll interval 30, got %d", cfg.Client.PollIntervalSeconds)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}
}

func TestLoadConfig_FillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmond.json")
	t.Setenv("NETMOND_CONFIG", path)

	// 旧版本配置：只有 server 段
	if err := os.WriteFile(path, []byte(`{"server":{"listen":":9000"}}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":9000" {
		t.Fatalf("explicit listen overwritten: %q", cfg.Server.Listen)
	}
	if cfg.Monitor.BandwidthThresholdMbps != 80 {
		t.Fatalf("missing threshold not defaulted: %v", cfg.Monitor.BandwidthThresholdMbps)
	}
	if cfg.Client.Mode != ClientModeWS {
		t.Fatalf("missing mode not defaulted: %q", cfg.Client.Mode)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmond.json")
	t.Setenv("NETMOND_CONFIG", path)

	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("NETMOND_LISTEN", ":18000")
	t.Setenv("NETMOND_WS_URL", "ws://example.test/ws")
	t.Setenv("NETMOND_SIMULATE", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":18000" {
		t.Fatalf("env listen not applied: %q", cfg.Server.Listen)
	}
	if cfg.Client.WSURL != "ws://example.test/ws" {
		t.Fatalf("env ws url not applied: %q", cfg.Client.WSURL)
	}
	if cfg.Monitor.Simulate {
		t.Fatalf("env simulate not applied")
	}
}
