package validate

import "testing"

func TestIsPlausiblePhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"+1 202 555 0119", true},
		{"+44 20 7946 0958", true},
		{"+7 (900) 123-45-67", true},
		{"12345", false},
		{"+12345", false},
		{"2025550119", false},
		{"+1234567890123456", false},
		{"+123456789012345", true},
		{"", false},
		{"call me", false},
		{"tel: +1-202-555-0119 ext", true},
	}
	for _, tc := range cases {
		if got := IsPlausiblePhone(tc.in); got != tc.want {
			t.Errorf("IsPlausiblePhone(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStripPhone(t *testing.T) {
	if got := StripPhone("+1 (202) 555-0119"); got != "+12025550119" {
		t.Fatalf("unexpected strip result %q", got)
	}
}

func TestIsNonEmptyTrimmed(t *testing.T) {
	if IsNonEmptyTrimmed("   \t\n") {
		t.Fatal("blank input must fail")
	}
	if !IsNonEmptyTrimmed("  Anna ") {
		t.Fatal("non-blank input must pass")
	}
}
