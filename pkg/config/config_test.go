package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.BlockSize != 128 {
		t.Fatalf("BlockSize = %d, want 128", cfg.Index.BlockSize)
	}
	if cfg.Index.PostingSkipStep != 32 || cfg.Index.TermsSkipStep != 32 {
		t.Fatalf("skip steps = %d/%d, want 32/32", cfg.Index.PostingSkipStep, cfg.Index.TermsSkipStep)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("index:\n  blockSize: 64\n  dataDir: /var/lib/emberidx\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.BlockSize != 64 {
		t.Fatalf("BlockSize = %d, want 64", cfg.Index.BlockSize)
	}
	if cfg.Index.DataDir != "/var/lib/emberidx" {
		t.Fatalf("DataDir = %q, want /var/lib/emberidx", cfg.Index.DataDir)
	}
	// Fields absent from the YAML fall back to defaultConfig's values.
	if cfg.Index.PostingSkipStep != 32 {
		t.Fatalf("PostingSkipStep = %d, want 32 (default)", cfg.Index.PostingSkipStep)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EMBERIDX_INDEX_BLOCKSIZE", "256")
	t.Setenv("EMBERIDX_INDEX_MERGEINTERVAL", "90s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Index.BlockSize != 256 {
		t.Fatalf("BlockSize = %d, want 256", cfg.Index.BlockSize)
	}
	if cfg.Index.MergeInterval != 90*time.Second {
		t.Fatalf("MergeInterval = %v, want 90s", cfg.Index.MergeInterval)
	}
}
