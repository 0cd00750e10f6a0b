package config

import (
	"strings"
	"testing"
)

func TestLoadConfigFileOverridesStreamBlock(t *testing.T) {
	cfg := &Config{
		HeartbeatSeconds:         15,
		IdleTimeoutSeconds:       60,
		FirstEventTimeoutSeconds: 30,
		SinkBufferSize:           256,
	}

	yaml := `
stream:
  heartbeat_seconds: 5
  idle_timeout_seconds: 120
`
	if err := LoadConfigFile(strings.NewReader(yaml), cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HeartbeatSeconds != 5 || cfg.IdleTimeoutSeconds != 120 {
		t.Errorf("stream block not applied: %+v", cfg)
	}
	// Keys absent from the file keep their existing values.
	if cfg.FirstEventTimeoutSeconds != 30 || cfg.SinkBufferSize != 256 {
		t.Errorf("untouched settings changed: %+v", cfg)
	}
}

func TestLoadConfigFileWithoutStreamBlock(t *testing.T) {
	cfg := &Config{HeartbeatSeconds: 15}
	if err := LoadConfigFile(strings.NewReader("other: thing\n"), cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HeartbeatSeconds != 15 {
		t.Errorf("config changed without a stream block: %+v", cfg)
	}
}

func TestLoadConfigFileRejectsNegatives(t *testing.T) {
	cfg := &Config{}
	err := LoadConfigFile(strings.NewReader("stream:\n  heartbeat_seconds: -1\n"), cfg)
	if err == nil {
		t.Fatal("expected an error for a negative setting")
	}
}

func TestLoadConfigFileRejectsMalformedYAML(t *testing.T) {
	cfg := &Config{}
	if err := LoadConfigFile(strings.NewReader(":: not yaml ::"), cfg); err == nil {
		t.Fatal("expected a parse error")
	}
}
