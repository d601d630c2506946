package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 1*time.Minute + 9*time.Second, "2h1m9s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Duration(tt.in))
	}
}
