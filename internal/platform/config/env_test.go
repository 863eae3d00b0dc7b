package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port   int    `env:"TEST_PORT" envDefault:"123"`
	DBPath string `env:"TEST_DB_PATH" envDefault:"data/sheet.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.DBPath != "data/sheet.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
}

func TestParseEnvReadsPrefixedVariables(t *testing.T) {
	t.Setenv("TRAITSHEET_TEST_DB_PATH", "/tmp/other.db")
	t.Setenv("TEST_PORT", "999")

	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("expected prefixed db path, got %q", cfg.DBPath)
	}
	if cfg.Port != 123 {
		t.Fatalf("unprefixed variable must be ignored, got port %d", cfg.Port)
	}
}

func TestParseEnvWithEmptyPrefix(t *testing.T) {
	t.Setenv("TEST_PORT", "456")

	var cfg envTestConfig
	if err := ParseEnvWithPrefix(&cfg, ""); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 456 {
		t.Fatalf("expected port 456, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("TRAITSHEET_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
