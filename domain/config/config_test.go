package config

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Server.Port != 50051 {
		t.Errorf("Server.Port = %d, want 50051", cfg.Server.Port)
	}
	if cfg.Storage.Key != "robot_id" {
		t.Errorf("Storage.Key = %q, want robot_id", cfg.Storage.Key)
	}
	if cfg.Field.Policy != PolicyReset {
		t.Errorf("Field.Policy = %q, want reset", cfg.Field.Policy)
	}
	if cfg.Resilience.Retry.MaxAttempts != 1 {
		t.Errorf("Retry.MaxAttempts = %d, want 1 (no retries)", cfg.Resilience.Retry.MaxAttempts)
	}
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		duration Duration
		want     string
	}{
		{Duration(0), `"0s"`},
		{Duration(1500 * time.Millisecond), `"1.5s"`},
		{Duration(90 * time.Second), `"1m30s"`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.duration)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", tt.duration, err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.duration, data, tt.want)
		}

		var back Duration
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if back != tt.duration {
			t.Errorf("Unmarshal(%s) = %v, want %v", data, back, tt.duration)
		}
	}

	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("Unmarshal(\"soon\") succeeded")
	}
	if err := json.Unmarshal([]byte(`null`), &d); err != nil {
		t.Errorf("Unmarshal(null) error = %v", err)
	}
}

func TestDuration_YAMLInConfig(t *testing.T) {
	t.Parallel()

	var lock LockConfig
	if err := yaml.Unmarshal([]byte("ttl: 2m\nretry_interval: 25ms\n"), &lock); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if lock.TTL.Duration() != 2*time.Minute {
		t.Errorf("TTL = %v, want 2m", lock.TTL.Duration())
	}
	if lock.RetryInterval.Duration() != 25*time.Millisecond {
		t.Errorf("RetryInterval = %v, want 25ms", lock.RetryInterval.Duration())
	}

	out, err := yaml.Marshal(lock)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var again LockConfig
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("yaml.Unmarshal(marshalled) error = %v", err)
	}
	if again != lock {
		t.Errorf("yaml round trip = %+v, want %+v", again, lock)
	}
}
