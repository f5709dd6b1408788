package httpapi

import "testing"

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc123", "abc123", false},
		{"bearer abc123", "abc123", false},
		{"  Bearer   abc123  ", "abc123", false},
		{"", "", true},
		{"Basic abc123", "", true},
		{"Bearer ", "", true},
	}
	for _, tc := range cases {
		got, err := extractBearerToken(tc.header)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("header %q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if got != tc.want {
			t.Fatalf("header %q: got %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/auth/login", "/auth/register", "/healthz", "/readyz", "/info", "/metrics", "/"}
	for _, p := range public {
		if !isPublicPath(p) {
			t.Fatalf("expected %s to be public", p)
		}
	}
	private := []string{"/attendance/clock-in", "/leave/request", "/payroll/run-cycle", "/employees", "/employees/me"}
	for _, p := range private {
		if isPublicPath(p) {
			t.Fatalf("expected %s to require auth", p)
		}
	}
}
