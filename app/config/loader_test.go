package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "shops.yaml", `
channel:
  name: shops
  subreddit: InstagramShops
settings:
  enabled: true
  request_limit: 50
  max_pages: 5
  refresh_interval: 1800
`)
	writeConfigFile(t, dir, "reviews.yml", `
channel:
  subreddit: ShopReviews
settings:
  enabled: false
`)

	loader := NewLoader(dir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}

	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}

	shops := configs["shops"]
	if shops == nil {
		t.Fatal("Expected shops config")
	}
	if shops.Channel.Subreddit != "InstagramShops" {
		t.Errorf("Unexpected subreddit: %s", shops.Channel.Subreddit)
	}
	if shops.Settings.RequestLimit != 50 || shops.Settings.MaxPages != 5 || shops.Settings.RefreshInterval != 1800 {
		t.Errorf("Unexpected settings: %+v", shops.Settings)
	}
	if !shops.Settings.Enabled {
		t.Error("Expected shops to be enabled")
	}

	// Name defaults from the filename
	reviews := configs["reviews"]
	if reviews == nil {
		t.Fatal("Expected reviews config keyed by filename")
	}
	if reviews.Settings.Enabled {
		t.Error("Expected reviews to be disabled")
	}
}

func TestLoadAllDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "minimal.yaml", `
channel:
  subreddit: SomeSub
settings:
  enabled: true
`)

	loader := NewLoader(dir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Failed to load configs: %v", err)
	}

	cfg := configs["minimal"]
	if cfg == nil {
		t.Fatal("Expected minimal config")
	}
	if cfg.Settings.RequestLimit != 100 {
		t.Errorf("Expected default request limit 100, got %d", cfg.Settings.RequestLimit)
	}
	if cfg.Settings.MaxPages != 10 {
		t.Errorf("Expected default max pages 10, got %d", cfg.Settings.MaxPages)
	}
	if cfg.Settings.RefreshInterval != 3600 {
		t.Errorf("Expected default refresh interval 3600, got %d", cfg.Settings.RefreshInterval)
	}
}

func TestLoadAllMissingDir(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))

	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Missing directory must not be an error, got: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("Expected no configs, got %d", len(configs))
	}
}

func TestLoadAllRejectsMissingSubreddit(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "broken.yaml", `
channel:
  name: broken
settings:
  enabled: true
`)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("Expected an error for a config without a subreddit")
	}
}

func TestLoadAllRejectsDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := `
channel:
  name: shops
  subreddit: InstagramShops
settings:
  enabled: true
`
	writeConfigFile(t, dir, "one.yaml", content)
	writeConfigFile(t, dir, "two.yaml", content)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("Expected an error for duplicate channel names")
	}
}

func TestLoadAllRejectsOverlargeRequestLimit(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "big.yaml", `
channel:
  subreddit: SomeSub
settings:
  enabled: true
  request_limit: 500
`)

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("Expected an error for a request limit above 100")
	}
}

func TestLoadAllRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "garbage.yaml", "channel: [unterminated")

	loader := NewLoader(dir)
	if _, err := loader.LoadAll(); err == nil {
		t.Fatal("Expected an error for invalid YAML")
	}
}
