package db

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Davis", "Davis"},
		{"D_vis", `D\_vis`},
		{"100%", `100\%`},
		{`a\b`, `a\\b`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := EscapeLike(tt.in); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
