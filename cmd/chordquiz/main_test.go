package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/chordquiz/internal/config"
	"github.com/verte-zerg/chordquiz/internal/theory"
)

func defaultFlags() quizFlags {
	return quizFlags{
		key:         defaultKey,
		accidentals: defaultAccidentals,
		length:      defaultLength,
		octave:      defaultOctave,
		weakTop:     defaultWeakTop,
		weakFactor:  defaultWeakFactor,
		weakWindow:  defaultWeakWindow,
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(defaultFlags())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Parameters.Key != 0 || cfg.Parameters.Accidentals != theory.Sharp {
		t.Fatalf("unexpected key settings: %+v", cfg.Parameters)
	}
	if cfg.Parameters.Length != defaultLength || cfg.Octave != defaultOctave {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestBuildConfigCanonicalTypes(t *testing.T) {
	f := defaultFlags()
	f.key = "Eb"
	f.accidentals = "flat"
	f.types = []string{"M7", "-7", " 7 "}
	cfg, err := buildConfig(f)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := strings.Join(cfg.Parameters.Types, ","); got != "maj7,m7,7" {
		t.Fatalf("unexpected types %q", got)
	}
	if cfg.Parameters.Key.Name(cfg.Parameters.Accidentals) != "Eb" {
		t.Fatalf("unexpected key %v", cfg.Parameters.Key)
	}
}

func TestBuildConfigErrors(t *testing.T) {
	cases := map[string]func(*quizFlags){
		"key":         func(f *quizFlags) { f.key = "H" },
		"accidentals": func(f *quizFlags) { f.accidentals = "natural" },
		"length":      func(f *quizFlags) { f.length = 0 },
		"octave":      func(f *quizFlags) { f.octave = 9 },
		"types":       func(f *quizFlags) { f.types = []string{"nope"} },
		"weak-top":    func(f *quizFlags) { f.weakTop = -1 },
		"empty pool":  func(f *quizFlags) { f.types = []string{"maj"}; f.disabled = []string{"maj"} },
	}
	for name, mutate := range cases {
		f := defaultFlags()
		mutate(&f)
		if _, err := buildConfig(f); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuildConfigLoadsList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drill.txt")
	if err := os.WriteFile(path, []byte("Cmaj7 Dm7 # ii\nG7\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := defaultFlags()
	f.list = path
	cfg, err := buildConfig(f)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := strings.Join(cfg.Parameters.Pool, " "); got != "Cmaj7 Dm7 G7" {
		t.Fatalf("unexpected pool %q", got)
	}
	if cfg.ListPath != path {
		t.Fatalf("unexpected list path %q", cfg.ListPath)
	}
}

func TestApplyFileConfigRespectsFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--length", "8"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	key, length, types := "F", 3, []string{"m7"}
	f := defaultFlags()
	f.length = 8
	applyFileConfig(cmd, &f, config.QuizConfig{Key: &key, Length: &length, Types: &types})
	if f.key != "F" {
		t.Fatalf("expected config key, got %q", f.key)
	}
	if f.length != 8 {
		t.Fatalf("expected flag length to win, got %d", f.length)
	}
	if len(f.types) != 1 || f.types[0] != "m7" {
		t.Fatalf("unexpected types %v", f.types)
	}
}

func TestTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}
