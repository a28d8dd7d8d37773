package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:8000" {
		t.Fatalf("apiBase: %q", cfg.APIBase)
	}
	if cfg.DataDir == "" {
		t.Fatalf("dataDir empty")
	}
}

func TestLoad_ParsesAndTrims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "api_base = \"  https://cart.example.test  \"\ndata_dir = \"" + dir + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBase != "https://cart.example.test" {
		t.Fatalf("apiBase: %q", cfg.APIBase)
	}
	if cfg.DataDir != dir {
		t.Fatalf("dataDir: %q", cfg.DataDir)
	}
}

func TestLoad_EmptyFieldsKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_base = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:8000" {
		t.Fatalf("apiBase: %q", cfg.APIBase)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_base = [broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
