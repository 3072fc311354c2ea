package service

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded-for single entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"},
			want:    "203.0.113.7",
		},
		{
			name:    "forwarded-for chain takes first entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 172.16.0.1"},
			want:    "203.0.113.7",
		},
		{
			name: "forwarded-for wins over real-ip",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.7",
				"X-Real-IP":       "198.51.100.2",
			},
			want: "203.0.113.7",
		},
		{
			name:    "real-ip fallback",
			headers: map[string]string{"X-Real-IP": "198.51.100.2"},
			want:    "198.51.100.2",
		},
		{
			name: "real-ip wins over cf-connecting-ip",
			headers: map[string]string{
				"X-Real-IP":        "198.51.100.2",
				"CF-Connecting-IP": "192.0.2.33",
			},
			want: "198.51.100.2",
		},
		{
			name:    "cf-connecting-ip fallback",
			headers: map[string]string{"CF-Connecting-IP": "192.0.2.33"},
			want:    "192.0.2.33",
		},
		{
			name:    "no headers",
			headers: nil,
			want:    "unknown",
		},
		{
			name:    "whitespace-only forwarded-for falls through to unknown",
			headers: map[string]string{"X-Forwarded-For": "  "},
			want:    "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestDeviceDescriptor(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "chrome on windows desktop",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: "Windows - Chrome (Desktop)",
		},
		{
			name: "chrome on macos",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: "macOS - Chrome (Desktop)",
		},
		{
			name: "edge is not chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			want: "Windows - Edge (Desktop)",
		},
		{
			name: "safari on iphone is not chrome",
			ua:   "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			want: "iOS - Safari (Mobile)",
		},
		{
			name: "firefox on linux",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			want: "Linux - Firefox (Desktop)",
		},
		{
			name: "chrome on android is mobile",
			ua:   "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			want: "Android - Chrome (Mobile)",
		},
		{
			name: "safari on ipad is tablet",
			ua:   "Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/604.1",
			want: "iOS - Safari (Tablet)",
		},
		{
			name: "empty user agent",
			ua:   "",
			want: "Unknown - Unknown (Desktop)",
		},
		{
			name: "bot user agent",
			ua:   "curl/8.4.0",
			want: "Unknown - Unknown (Desktop)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeviceDescriptor(tt.ua))
		})
	}
}
