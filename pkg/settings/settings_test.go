package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}
	if got := s.GetScriptsDir(); got != DefaultScriptsDir {
		t.Errorf("GetScriptsDir() default = %q, want %q", got, DefaultScriptsDir)
	}
	if s.Testbed != "" {
		t.Errorf("Testbed should be empty, got %q", s.Testbed)
	}
}

func TestSettings_Set(t *testing.T) {
	s := &Settings{}
	if !s.Set("testbed", "/etc/saiqual/tb.yaml") || s.Testbed != "/etc/saiqual/tb.yaml" {
		t.Errorf("Set(testbed) failed, got %q", s.Testbed)
	}
	if !s.Set("scripts_dir", "/opt/scripts") || s.GetScriptsDir() != "/opt/scripts" {
		t.Errorf("Set(scripts_dir) failed, got %q", s.ScriptsDir)
	}
	if !s.Set("container", "syncd") || s.Container != "syncd" {
		t.Errorf("Set(container) failed, got %q", s.Container)
	}
	if s.Set("bogus", "x") {
		t.Error("Set(bogus) = true, want false")
	}

	s.Clear()
	if s.Testbed != "" || s.ScriptsDir != "" || s.Container != "" {
		t.Errorf("Clear() left %+v", s)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{Testbed: "tb.yaml", Container: "saiserver"}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if *loaded != *s {
		t.Errorf("LoadFrom() = %+v, want %+v", loaded, s)
	}
}

func TestSettings_LoadMissing(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom(missing) error: %v", err)
	}
	if s.Testbed != "" {
		t.Errorf("missing file should yield empty settings, got %+v", s)
	}
}

func TestSettings_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom(invalid) = nil error, want error")
	}
}
