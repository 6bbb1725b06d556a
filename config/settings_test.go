package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsFile(t *testing.T) {
	saved := GetSettings()
	t.Cleanup(func() { SetSettings(saved) })

	path := filepath.Join(t.TempDir(), "settings.yaml")
	body := "input: extracted\nworkers: 3\ntexture_format: webp\nderive_height_maps: true\n"
	if err := os.WriteFile(path, []byte(body), 0666); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := LoadSettingsFile(path); err != nil {
		t.Fatalf("LoadSettingsFile: %v", err)
	}

	s := GetSettings()
	if s.InputDirectory != "extracted" || s.Workers != 3 {
		t.Errorf("Settings not merged: %+v", s)
	}
	if s.TextureFormat != IMAGE_FORMAT_WEBP || !s.DeriveHeightMaps {
		t.Errorf("Settings not merged: %+v", s)
	}
	if s.OutputDirectory != saved.OutputDirectory {
		t.Errorf("Unlisted values should keep their defaults: %+v", s)
	}

	if err := LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("A missing settings file should not error: %v", err)
	}
}

func TestWorkerCount(t *testing.T) {
	if got := (Settings{Workers: 4}).WorkerCount(); got != 4 {
		t.Errorf("WorkerCount = %d", got)
	}
	if got := (Settings{Workers: 4, Verbose: true}).WorkerCount(); got != 1 {
		t.Errorf("Verbose WorkerCount = %d", got)
	}
	if got := (Settings{}).WorkerCount(); got != 1 {
		t.Errorf("Zero WorkerCount = %d", got)
	}
}

func TestParseImageFormat(t *testing.T) {
	f, err := ParseImageFormat("webp")
	if err != nil || f != IMAGE_FORMAT_WEBP || f.Extension() != ".webp" {
		t.Errorf("ParseImageFormat(webp) = %v, %v", f, err)
	}
	if _, err := ParseImageFormat("bmp"); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestSetEncoding(t *testing.T) {
	saved := GetEncoding()
	t.Cleanup(func() { nameCharMap = saved })

	if err := SetEncoding("Windows 1251"); err != nil {
		t.Fatalf("SetEncoding: %v", err)
	}
	if GetEncoding().String() != "Windows 1251" {
		t.Errorf("Encoding not switched: %v", GetEncoding())
	}
	if err := SetEncoding("EBCDIC 9000"); err == nil {
		t.Error("Expected an error for an unknown encoding")
	}

	found := false
	for _, name := range ListEncodings() {
		if name == "Windows 1252" {
			found = true
		}
	}
	if !found {
		t.Errorf("Default encoding missing from %d listed encodings", len(ListEncodings()))
	}
}
