package main

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func testViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.Set("focus-seconds", 1500)
	v.Set("demo-seconds", 180)
	v.Set("ad-poll", time.Second)
	v.Set("request-timeout", 15*time.Second)
	if yaml != "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
			t.Fatalf("ReadConfig: %v", err)
		}
	}
	return v
}

func TestAgentConfigDefaults(t *testing.T) {
	cfg, err := agentConfig(testViper(t, ""))
	if err != nil {
		t.Fatalf("agentConfig: %v", err)
	}
	if cfg.Session.FocusDurationSeconds != 1500 || cfg.Session.DemoDurationSeconds != 180 {
		t.Errorf("durations = %+v", cfg.Session)
	}
	// One quote per whole minute below 25:00.
	if n := len(cfg.Session.Milestones); n != 24 {
		t.Errorf("got %d default milestones, want 24", n)
	}
	if cfg.Session.LowWater() != 180 {
		t.Errorf("low water = %d, want 180", cfg.Session.LowWater())
	}
	if cfg.NumQuestions != 5 || cfg.RequestTimeout != 15*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestAgentConfigMilestonesFromFile(t *testing.T) {
	v := testViper(t, `
milestones:
  - threshold: 60
    message: One minute left
  - threshold: 300
    message: Quote2
`)
	cfg, err := agentConfig(v)
	if err != nil {
		t.Fatalf("agentConfig: %v", err)
	}
	ms := cfg.Session.Milestones
	if len(ms) != 2 || ms[0].Threshold != 60 || ms[0].Message != "One minute left" || ms[1].Message != "Quote2" {
		t.Errorf("milestones = %+v", ms)
	}
}

func TestAgentConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		set  func(v *viper.Viper)
		yaml string
	}{
		{"zero focus", func(v *viper.Viper) { v.Set("focus-seconds", 0) }, ""},
		{"negative auto start", func(v *viper.Viper) { v.Set("auto-start-below", -1) }, ""},
		{"descending milestones", nil, `
milestones:
  - threshold: 120
    message: a
  - threshold: 60
    message: b
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testViper(t, tt.yaml)
			if tt.set != nil {
				tt.set(v)
			}
			if _, err := agentConfig(v); err == nil {
				t.Error("expected error")
			}
		})
	}
}
