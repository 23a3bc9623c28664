package browser

import "testing"

func TestOpenCommandPerPlatform(t *testing.T) {
	tests := []struct {
		goos string
		name string
	}{
		{"linux", "xdg-open"},
		{"darwin", "open"},
		{"windows", "rundll32"},
		{"freebsd", "xdg-open"},
	}
	for _, tt := range tests {
		name, args := openCommand(tt.goos, "https://example.com")
		if name != tt.name {
			t.Fatalf("%s: expected %q, got %q", tt.goos, tt.name, name)
		}
		if len(args) == 0 || args[len(args)-1] != "https://example.com" {
			t.Fatalf("%s: expected the url as final argument, got %v", tt.goos, args)
		}
	}
}
