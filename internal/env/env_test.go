package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("LMSGATE_TEST_STRING", "debug")
	t.Setenv("LMSGATE_TEST_BLANK", "   ")

	assert.Equal(t, "debug", GetEnvOrDefault("LMSGATE_TEST_STRING", "info"))
	assert.Equal(t, "info", GetEnvOrDefault("LMSGATE_TEST_BLANK", "info"))
	assert.Equal(t, "info", GetEnvOrDefault("LMSGATE_TEST_UNSET", "info"))
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		expected bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"nope", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LMSGATE_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, GetEnvBoolOrDefault("LMSGATE_TEST_BOOL", tt.fallback))
		})
	}
}

func TestGetEnvIntOrDefault(t *testing.T) {
	t.Setenv("LMSGATE_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvIntOrDefault("LMSGATE_TEST_INT", 7))

	t.Setenv("LMSGATE_TEST_INT", "forty")
	assert.Equal(t, 7, GetEnvIntOrDefault("LMSGATE_TEST_INT", 7))
}
