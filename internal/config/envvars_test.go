// ABOUTME: Tests for ${VAR} expansion in settings fields
// ABOUTME: Uses explicit lookup maps instead of the process environment

package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"HOST": "localhost", "PORT": "4222"}
	lookup := func(k string) string { return vars[k] }

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"nats://${HOST}:${PORT}", "nats://localhost:4222"},
		{"${MISSING}x", "x"},
		{"$HOST", "$HOST"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in, lookup); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Parallel()

	vars := map[string]string{"KEY": "sk-123", "BETA": "tools"}
	s := &Settings{
		APIKey:  "${KEY}",
		Headers: map[string]string{"anthropic-beta": "${BETA}"},
		NATS:    NATSSettings{URL: "nats://${HOST}"},
	}
	resolveEnvVars(s, func(k string) string { return vars[k] })

	if s.APIKey != "sk-123" {
		t.Errorf("APIKey = %q", s.APIKey)
	}
	if s.Headers["anthropic-beta"] != "tools" {
		t.Errorf("Headers = %v", s.Headers)
	}
	if s.NATS.URL != "nats://" {
		t.Errorf("NATS.URL = %q", s.NATS.URL)
	}
}
