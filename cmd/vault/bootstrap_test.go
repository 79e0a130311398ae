package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/vault/pkg/vault/config"
	"github.com/jamesainslie/vault/pkg/vault/logging"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		maxSize string
		want    int64
	}{
		{"10MiB", 10 << 20},
		{"1GiB", 1 << 30},
		{"512KiB", 512 << 10},
		{"", defaultLogMaxSize},
		{"invalid", defaultLogMaxSize},
		{"0B", defaultLogMaxSize},
	}

	for _, tt := range tests {
		t.Run("max_size="+tt.maxSize, func(t *testing.T) {
			in := config.RotationConfig{MaxSize: tt.maxSize, MaxAge: 7, MaxBackups: 3, Daily: true}
			want := logging.RotationConfig{MaxSize: tt.want, MaxAge: 7, MaxBackups: 3, Daily: true}

			if got := parseRotationConfig(in); got != want {
				t.Errorf("parseRotationConfig(%+v) = %+v, want %+v", in, got, want)
			}
		})
	}
}

func TestInitializeLoggingUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "vault.log")
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "logging:\n  level: debug\n  path: " + logPath + "\n  components:\n    transfer: warn\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	prev := cfgFile
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = prev })

	if err := initializeLogging(nil, nil); err != nil {
		t.Fatalf("initializeLogging() error = %v", err)
	}
	defer closeLogging()

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created at configured path: %v", err)
	}
	for _, dir := range []string{config.DataDir(), config.StateDir()} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("directory %s was not created: %v", dir, err)
		}
	}
}
