package config

import (
	"testing"
	"time"
)

func TestValidateEnv(t *testing.T) {
	t.Setenv("TWEETER_PRESENT", "yes")
	t.Setenv("TWEETER_MISSING", "")

	if err := ValidateEnv([]string{"TWEETER_PRESENT"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	err := ValidateEnv([]string{"TWEETER_PRESENT", "TWEETER_MISSING"})
	if err == nil {
		t.Fatal("Expected error for missing variable")
	}
	if err.Error() != "missing required environment variables: TWEETER_MISSING" {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TWEETER_INT", "42")
	t.Setenv("TWEETER_BAD_INT", "forty")
	t.Setenv("TWEETER_DUR", "250ms")
	t.Setenv("TWEETER_BOOL", "true")

	if got := GetEnvInt("TWEETER_INT", 1); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := GetEnvInt("TWEETER_BAD_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
	if got := GetEnvDuration("TWEETER_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", got)
	}
	if !GetEnvBool("TWEETER_BOOL", false) {
		t.Error("Expected true")
	}
	if GetEnvBool("TWEETER_UNSET_BOOL", false) {
		t.Error("Expected default false")
	}
	if got := GetEnvOrDefault("TWEETER_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}
