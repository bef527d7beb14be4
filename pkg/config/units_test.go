package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"10s", 10 * time.Second, false},
		{"1m", 1 * time.Minute, false},
		{"1.5h", 90 * time.Minute, false},
		{"1d", 24 * time.Hour, false},
		{"1w", 168 * time.Hour, false},
		{"2d2h", 50 * time.Hour, false},
		{"100ms", 100 * time.Millisecond, false},
		{"", 0, false},
		{"invalid", 0, true},
		{"3dx", 0, true},
		{"1w2d12h", 228 * time.Hour, false},
		{"0.5d", 12 * time.Hour, false},
		{"2d1w", 0, true},
		{"d", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDurationYAML(t *testing.T) {
	type TestConfig struct {
		Time Duration `yaml:"time"`
	}

	var cfg TestConfig
	if err := yaml.Unmarshal([]byte("time: 2d\n"), &cfg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if cfg.Time.Std() != 48*time.Hour {
		t.Errorf("Expected 48h, got %v", cfg.Time.Std())
	}

	out, err := yaml.Marshal(TestConfig{Time: Duration(90 * time.Second)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != "time: 1m30s\n" {
		t.Errorf("Marshal = %q", string(out))
	}
}
