package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+64 21 123 4567":  "+64211234567",
		"+64-21-123-4567":  "+64211234567",
		"(021) 123 4567":   "0211234567",
		"":                 "",
		"+64\t21\n1234567": "+64211234567",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSamePhone(t *testing.T) {
	if !SamePhone("+64 21 123 4567", "+64(21)123-4567") {
		t.Fatalf("expected formatted phones to match")
	}
	if SamePhone("+64 21 123 4567", "+64 21 123 4568") {
		t.Fatalf("expected different phones not to match")
	}
}
