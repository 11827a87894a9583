package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFrom(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "device: 1\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := loadConfigFrom(path)
	if cfg.Device != 1 {
		t.Errorf("Device = %d, want 1", cfg.Device)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadConfigFromMissing(t *testing.T) {
	cfg := loadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if cfg != (Config{}) {
		t.Errorf("cfg = %+v, want zero value", cfg)
	}
}

func TestLoadConfigFromMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := loadConfigFrom(path)
	if cfg != (Config{}) {
		t.Errorf("cfg = %+v, want zero value for malformed input", cfg)
	}
}

func TestParseDims(t *testing.T) {
	x, y, z, err := parseDims("4, 2,1")
	if err != nil {
		t.Fatalf("parseDims() failed: %v", err)
	}
	if x != 4 || y != 2 || z != 1 {
		t.Errorf("dims = (%d,%d,%d), want (4,2,1)", x, y, z)
	}

	if _, _, _, err := parseDims("1,2"); err == nil {
		t.Error("parseDims(1,2) succeeded, want error")
	}
	if _, _, _, err := parseDims("1,-2,3"); err == nil {
		t.Error("parseDims with negative dim succeeded, want error")
	}
}
