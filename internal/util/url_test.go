package util

import "testing"

func TestResolveURLPath(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		pathOrURL string
		expected  string
	}{
		{
			name:      "base without trailing slash, path with leading slash",
			baseURL:   "http://localhost:1234",
			pathOrURL: "/v1/models",
			expected:  "http://localhost:1234/v1/models",
		},
		{
			name:      "base with trailing slash, path with leading slash",
			baseURL:   "http://gateway.lan/studio/",
			pathOrURL: "/v1/models/load",
			expected:  "http://gateway.lan/studio/v1/models/load",
		},
		{
			name:      "path without leading slash",
			baseURL:   "http://localhost:1234",
			pathOrURL: "v1/models",
			expected:  "http://localhost:1234/v1/models",
		},
		{
			name:      "escaped segments survive",
			baseURL:   "http://localhost:1234",
			pathOrURL: "/v1/models/a%20b",
			expected:  "http://localhost:1234/v1/models/a%20b",
		},
		{
			name:      "empty base",
			baseURL:   "",
			pathOrURL: "/v1/models",
			expected:  "/v1/models",
		},
		{
			name:      "empty path",
			baseURL:   "http://localhost:1234",
			pathOrURL: "",
			expected:  "http://localhost:1234",
		},
		{
			name:      "absolute url wins",
			baseURL:   "http://localhost:1234",
			pathOrURL: "http://other:9000/v1/models",
			expected:  "http://other:9000/v1/models",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveURLPath(tt.baseURL, tt.pathOrURL)
			if got != tt.expected {
				t.Errorf("ResolveURLPath(%q, %q) = %q, want %q", tt.baseURL, tt.pathOrURL, got, tt.expected)
			}
		})
	}
}

func TestEscapePathSegments(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"llama-3-8b", "llama-3-8b"},
		{"lmstudio-community/Meta-Llama-3-8B-GGUF", "lmstudio-community/Meta-Llama-3-8B-GGUF"},
		{"my model", "my%20model"},
		{"a?b#c", "a%3Fb%23c"},
		{"a//b", "a//b"},
		{"/leading//double/", "/leading//double/"},
	}

	for _, tt := range tests {
		if got := EscapePathSegments(tt.in); got != tt.expected {
			t.Errorf("EscapePathSegments(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestIsLoopbackURL(t *testing.T) {
	tests := []struct {
		in       string
		expected bool
	}{
		{"http://localhost:1234", true},
		{"http://LOCALHOST:1234", true},
		{"http://127.0.0.1:1234", true},
		{"http://[::1]:1234", true},
		{"http://host.docker.internal:1234", false},
		{"http://192.168.0.10:1234", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		if got := IsLoopbackURL(tt.in); got != tt.expected {
			t.Errorf("IsLoopbackURL(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
