package history

import "testing"

// TestMaskDatabaseURL tests credential masking for logs
func TestMaskDatabaseURL(t *testing.T) {
	cases := map[string]string{
		"postgres://localhost:5432/inlint":                "postgres://localhost:5432/inlint",
		"postgres://app:secret@db:5432/inlint":            "postgres://app:***@db:5432/inlint",
		"postgres://app:secret@db:5432/inlint?sslmode=on": "postgres://app:***@db:5432/inlint?sslmode=on",
	}
	for in, want := range cases {
		if got := maskDatabaseURL(in); got != want {
			t.Errorf("maskDatabaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
