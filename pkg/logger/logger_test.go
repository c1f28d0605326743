package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "valid json debug",
			config:  &Config{Level: DebugLevel, Format: JSONFormat},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  &Config{Level: "loud", Format: TextFormat},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  &Config{Level: InfoLevel, Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	if _, err := NewLogger(&Config{Level: "loud", Format: TextFormat}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestLoggerFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: DebugLevel, Format: JSONFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithComponent("aggregator").
		WithField("month", "2025-06").
		WithFields(Fields{"rows": 2}).
		Info("Aggregation complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["component"] != "aggregator" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["month"] != "2025-06" {
		t.Errorf("month = %v", entry["month"])
	}
	if entry["rows"] != float64(2) {
		t.Errorf("rows = %v", entry["rows"])
	}
	if entry["msg"] != "Aggregation complete" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.WithError(errors.New("boom")).Error("Fetch failed")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error cause missing from output: %s", buf.String())
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&Config{Level: WarnLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info message leaked past warn level: %s", buf.String())
	}

	log.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("warn message missing")
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	replacement, err := NewLogger(&Config{Level: InfoLevel, Format: TextFormat, Output: &buf})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	SetGlobalLogger(replacement)
	GetGlobalLogger().Info("through the global")

	if !strings.Contains(buf.String(), "through the global") {
		t.Error("global logger replacement not effective")
	}
}
