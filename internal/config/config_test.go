package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xbrltree.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.Dir != "./labfile" {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
	if !cfg.Source.AllowNetwork || cfg.Source.Timeout != 30*time.Second {
		t.Errorf("source defaults = %+v", cfg.Source)
	}
	if cfg.Labels.DefaultRole != DefaultLabelRole {
		t.Errorf("default role = %q", cfg.Labels.DefaultRole)
	}
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	t.Setenv("XBRLTREE_TEST_MIRROR", "/srv/taxonomy")
	path := writeConfig(t, `
log:
  level: debug
source:
  mirror_dir: ${XBRLTREE_TEST_MIRROR}
  allow_network: false
  timeout: 5s
cache:
  backend: sqlite
  sqlite_path: /tmp/labels.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Source.MirrorDir != "/srv/taxonomy" {
		t.Errorf("mirror_dir = %q, want expanded env value", cfg.Source.MirrorDir)
	}
	if cfg.Source.AllowNetwork {
		t.Error("allow_network should be false")
	}
	if cfg.Source.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Source.Timeout)
	}
	if cfg.Source.DocumentCacheSize != 256 {
		t.Errorf("document_cache_size = %d, want default 256", cfg.Source.DocumentCacheSize)
	}
	opts := cfg.CacheOptions()
	if opts.Backend != "sqlite" || opts.SQLitePath != "/tmp/labels.db" {
		t.Errorf("CacheOptions = %+v", opts)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "log: [", "unmarshal"},
		{"bad level", "log:\n  level: chatty\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad backend", "cache:\n  backend: redis\n", "cache.backend"},
		{"file without dir", "cache:\n  backend: file\n  dir: \"\"\n", "cache.dir"},
		{"negative cache size", "source:\n  document_cache_size: -1\n", "document_cache_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbrltree.yaml")
	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(path, false); err == nil {
		t.Error("Init should refuse to overwrite without force")
	}
	if err := Init(path, true); err != nil {
		t.Errorf("Init(force): %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(init output): %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("round trip = %+v, want %+v", cfg, Default())
	}
}
