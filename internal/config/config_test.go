package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "postfeed")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "postfeed")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSnapshotDir_UnderCacheBase(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := SnapshotDir()
	if !strings.HasPrefix(got, filepath.Join("/custom/cache", "postfeed")) {
		t.Errorf("snapshot dir %q not under cache base", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("POSTFEED_API_BASE_URL", "https://example.com/wp-json/wp/v2/")
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://example.com/wp-json/wp/v2" {
		t.Errorf("base url not trimmed: %q", cfg.API.BaseURL)
	}
	if cfg.API.PostsEndpoint != "/posts" {
		t.Errorf("posts endpoint default: got %q", cfg.API.PostsEndpoint)
	}
	if cfg.API.PerPage != 10 {
		t.Errorf("per_page default: got %d", cfg.API.PerPage)
	}
	if cfg.API.DefaultLanguage != "en" {
		t.Errorf("default language: got %q", cfg.API.DefaultLanguage)
	}
}

func TestLoad_MissingBaseURL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("POSTFEED_API_BASE_URL", "")
	t.Chdir(dir)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing base_url")
	}
}
