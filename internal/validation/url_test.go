package validation

import (
	"net"
	"strings"
	"testing"
)

func TestNewEndpointValidator(t *testing.T) {
	v := NewEndpointValidator()
	if v.AllowLocalhost || v.AllowPrivateIPs {
		t.Error("default validator must block local and private hosts")
	}
	if v.MaxLength != 2048 {
		t.Errorf("MaxLength = %d, want 2048", v.MaxLength)
	}

	p := NewPermissiveEndpointValidator()
	if !p.AllowLocalhost || !p.AllowPrivateIPs {
		t.Error("permissive validator must allow local and private hosts")
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantError string
	}{
		{
			name:  "public feed endpoint",
			input: "https://api.flickr.com/services/feeds/",
			want:  "https://api.flickr.com/services/feeds/",
		},
		{
			name:  "adds trailing slash",
			input: "https://api.flickr.com/services/feeds",
			want:  "https://api.flickr.com/services/feeds/",
		},
		{
			name:  "trims whitespace",
			input: "  https://feeds.example.org  ",
			want:  "https://feeds.example.org/",
		},
		{name: "empty", input: "", wantError: "cannot be empty"},
		{name: "ftp scheme", input: "ftp://api.flickr.com/", wantError: "http or https"},
		{name: "no scheme", input: "api.flickr.com/services", wantError: "http or https"},
		{name: "query string", input: "https://api.flickr.com/?x=1", wantError: "query or fragment"},
		{name: "fragment", input: "https://api.flickr.com/#top", wantError: "query or fragment"},
		{name: "traversal", input: "https://api.flickr.com/a/../b", wantError: "directory traversal"},
		{name: "html", input: "https://api.flickr.com/<script>", wantError: "invalid characters"},
		{name: "localhost", input: "http://localhost:8080/", wantError: "localhost"},
		{name: "loopback ip", input: "http://127.0.0.1/", wantError: "localhost"},
		{name: "private ip", input: "http://192.168.1.10/", wantError: "private IP"},
		{name: "unroutable", input: "http://0.0.0.0/", wantError: "unroutable"},
		{name: "too long", input: "https://a.org/" + strings.Repeat("x", 2100), wantError: "too long"},
	}

	v := NewEndpointValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateBaseURL(tt.input)
			if tt.wantError != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantError) {
					t.Fatalf("ValidateBaseURL(%q) error = %v, want %q", tt.input, err, tt.wantError)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateBaseURL(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ValidateBaseURL(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateBaseURLPermissive(t *testing.T) {
	v := NewPermissiveEndpointValidator()
	for _, input := range []string{"http://localhost:8080", "http://127.0.0.1:41234/feeds", "http://10.0.0.5/"} {
		if _, err := v.ValidateBaseURL(input); err != nil {
			t.Errorf("ValidateBaseURL(%q) error = %v, want nil", input, err)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"8.8.8.8", false},
		{"fd00::1", true},
		{"fe80::1", true},
		{"2001:4860:4860::8888", false},
	}
	for _, tt := range tests {
		if got := isPrivateIP(net.ParseIP(tt.ip)); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}

func TestIsLocalhost(t *testing.T) {
	for _, h := range []string{"localhost", "127.0.0.1", "::1", "app.localhost"} {
		if !isLocalhost(h) {
			t.Errorf("isLocalhost(%q) = false", h)
		}
	}
	if isLocalhost("api.flickr.com") {
		t.Error("isLocalhost(api.flickr.com) = true")
	}
}
