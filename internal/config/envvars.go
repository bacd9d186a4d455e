// ABOUTME: Environment variable expansion in config string fields
// ABOUTME: Replaces ${VAR} patterns from a lookup function; unset vars become empty

package config

import "regexp"

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// resolveEnvVars expands ${VAR} patterns in the string fields of s.
func resolveEnvVars(s *Settings, lookup func(string) string) {
	s.Model = expandEnv(s.Model, lookup)
	s.APIKey = expandEnv(s.APIKey, lookup)
	s.BaseURL = expandEnv(s.BaseURL, lookup)
	s.System = expandEnv(s.System, lookup)
	s.NATS.URL = expandEnv(s.NATS.URL, lookup)

	for k, v := range s.Headers {
		s.Headers[k] = expandEnv(v, lookup)
	}
}

// expandEnv replaces ${VAR} with lookup(VAR).
func expandEnv(s string, lookup func(string) string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return lookup(varName)
	})
}
