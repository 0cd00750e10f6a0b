package config

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// fileConfig is the YAML shape of the optional tuning file.
//
//	stream:
//	  heartbeat_seconds: 15
//	  idle_timeout_seconds: 60
//	  first_event_timeout_seconds: 30
//	  sink_buffer_size: 256
type fileConfig struct {
	Stream *streamConfig `yaml:"stream"`
}

type streamConfig struct {
	HeartbeatSeconds         int `yaml:"heartbeat_seconds"`
	IdleTimeoutSeconds       int `yaml:"idle_timeout_seconds"`
	FirstEventTimeoutSeconds int `yaml:"first_event_timeout_seconds"`
	SinkBufferSize           int `yaml:"sink_buffer_size"`
}

// LoadConfigFile merges settings from a YAML tuning file into cfg.
// Zero values in the file leave the existing setting untouched.
func LoadConfigFile(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if file.Stream == nil {
		return nil
	}

	if err := file.Stream.validate(); err != nil {
		return err
	}

	if file.Stream.HeartbeatSeconds > 0 {
		cfg.HeartbeatSeconds = file.Stream.HeartbeatSeconds
	}
	if file.Stream.IdleTimeoutSeconds > 0 {
		cfg.IdleTimeoutSeconds = file.Stream.IdleTimeoutSeconds
	}
	if file.Stream.FirstEventTimeoutSeconds > 0 {
		cfg.FirstEventTimeoutSeconds = file.Stream.FirstEventTimeoutSeconds
	}
	if file.Stream.SinkBufferSize > 0 {
		cfg.SinkBufferSize = file.Stream.SinkBufferSize
	}

	return nil
}

func (s *streamConfig) validate() error {
	for name, v := range map[string]int{
		"heartbeat_seconds":           s.HeartbeatSeconds,
		"idle_timeout_seconds":        s.IdleTimeoutSeconds,
		"first_event_timeout_seconds": s.FirstEventTimeoutSeconds,
		"sink_buffer_size":            s.SinkBufferSize,
	} {
		if v < 0 {
			return fmt.Errorf("stream.%s must not be negative, got %d", name, v)
		}
	}
	return nil
}
