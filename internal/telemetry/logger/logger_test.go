package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"default config", DefaultConfig()},
		{"text format", Config{Level: "debug", Format: "text"}},
		{"console format", Config{Level: "info", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("test message", "component", "session")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("parse log: %v", err)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["component"] != "session" {
				t.Errorf("component = %v", entry["component"])
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})
	defer SetLevel("info")

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info, got %s", buf.String())
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug should be emitted after SetLevel(debug)")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "json", Output: &buf})

	l.With("component", "engine").WithContext(context.Background()).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log: %v", err)
	}
	if entry["component"] != "engine" {
		t.Errorf("component = %v, want engine", entry["component"])
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() should never be nil")
	}
	var buf bytes.Buffer
	l, _ := New(Config{Level: "info", Format: "text", Output: &buf})
	prev := Default()
	SetDefault(l)
	defer SetDefault(prev)

	Default().Info("through default")
	if !strings.Contains(buf.String(), "through default") {
		t.Error("Default should return the logger passed to SetDefault")
	}

	SetDefault(nil)
	if Default() != l {
		t.Error("SetDefault(nil) replaced the logger")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{DefaultConfig(), false},
		{Config{}, false},
		{Config{Level: "WARNING", Format: "TEXT"}, false},
		{Config{Level: "verbose"}, true},
		{Config{Format: "xml"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
		if _, err := New(tt.cfg); (err != nil) != tt.wantErr {
			t.Errorf("New(%+v) = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestSetLevel_Unknown(t *testing.T) {
	defer SetLevel("info")
	SetLevel("error")
	if err := SetLevel("loud"); err == nil {
		t.Error("unknown level accepted")
	}
	if GetLevel() != "error" {
		t.Errorf("level changed to %q by a rejected name", GetLevel())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.With("k", "v").WithContext(nil).Error("dropped")
}
