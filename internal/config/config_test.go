package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "cuudl")
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	isolate(t)

	cfg, used, err := LoadMerged(Options{Output: "out", ImageWorkers: 8, Integration: "TRANSPORT"})
	if err != nil {
		t.Fatalf("LoadMerged failed: %v", err)
	}
	if used == "" {
		t.Error("missing source description")
	}
	if cfg.Output != "out" || cfg.ImageWorkers != 8 || cfg.ChapterWorkers != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Integration != IntegrationTransport {
		t.Errorf("Integration = %q", cfg.Integration)
	}
	if cfg.CipherKey == "" || cfg.Marker == "" || cfg.Domain == "" {
		t.Errorf("defaults missing: %+v", cfg)
	}
}

func TestLoadMergedActiveProfile(t *testing.T) {
	root := isolate(t)

	path, err := InitDefaultConfig()
	if err != nil {
		t.Fatalf("InitDefaultConfig failed: %v", err)
	}
	if path != filepath.Join(root, "configs", "Default.yaml") {
		t.Errorf("path = %q", path)
	}

	yml := "output: /tmp/manga\nmarker: \"#v\"\njpeg_quality: 0\nmirrors: [a.example]\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, used, err := LoadMerged(Options{Debug: true})
	if err != nil {
		t.Fatalf("LoadMerged failed: %v", err)
	}
	if used != path {
		t.Errorf("used = %q, want %q", used, path)
	}
	if cfg.Output != "/tmp/manga" || cfg.Marker != "#v" || !cfg.Debug {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.JPEGQuality != 90 {
		t.Errorf("JPEGQuality = %d, want default 90", cfg.JPEGQuality)
	}
	if hosts := cfg.Hosts(); len(hosts) != 2 || hosts[1] != "a.example" {
		t.Errorf("Hosts = %v", hosts)
	}

	if _, err := InitDefaultConfig(); !errors.Is(err, os.ErrExist) {
		t.Errorf("second init error = %v, want ErrExist", err)
	}
}

func TestLoadMergedRejectsUnknownIntegration(t *testing.T) {
	isolate(t)

	if _, _, err := LoadMerged(Options{IgnoreConfig: true, Integration: "both"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestProfiles(t *testing.T) {
	isolate(t)

	if _, err := ActiveConfigPath(); !errors.Is(err, ErrNoConfig) {
		t.Fatalf("ActiveConfigPath error = %v, want ErrNoConfig", err)
	}

	if _, err := InitDefaultConfig(); err != nil {
		t.Fatal(err)
	}
	if err := SaveYAML(DefaultConfig(), filepath.Join(ConfigsDir(), "night.yaml")); err != nil {
		t.Fatal(err)
	}

	if err := SwitchConfig("night"); err != nil {
		t.Fatalf("SwitchConfig failed: %v", err)
	}
	if err := SwitchConfig("missing"); err == nil {
		t.Error("switching to a missing profile should fail")
	}

	list, err := ListConfigs()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Label != "Default" || !list[1].Active {
		t.Fatalf("ListConfigs = %+v", list)
	}

	if _, err := RemoveConfig(DefaultLabel); err == nil {
		t.Error("removing Default should fail")
	}

	switched, err := RemoveConfig("night")
	if err != nil || !switched {
		t.Fatalf("RemoveConfig = %v, %v", switched, err)
	}
	if label, _ := CurrentLabel(); label != DefaultLabel {
		t.Errorf("active label = %q", label)
	}
}
