package amount

import (
	"math/big"
	"testing"
)

func TestToHuman(t *testing.T) {
	cases := []struct {
		baseUnits string
		want      string
	}{
		{"3193264587249763651824729", "3.1932"},
		{"21409258000000000000000", "0.0214"},
		{"10000000000000000000000", "0.01"},
		{"700000000000000000000", "0.0007"},
		{"1000000000000000000000000", "1"},
		{"0", "0"},
		{"999", "0"}, // below display precision
	}
	for _, tc := range cases {
		v, ok := new(big.Int).SetString(tc.baseUnits, 10)
		if !ok {
			t.Fatalf("bad test input %q", tc.baseUnits)
		}
		if got := ToHuman(v); got != tc.want {
			t.Errorf("ToHuman(%s) = %q, want %q", tc.baseUnits, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.997", "3997000000000000000000000"},
		{"0.018", "18000000000000000000000"},
		{"1", "1000000000000000000000000"},
		{"0.3", "300000000000000000000000"},
		{"1,000", "1000000000000000000000000000"},
		{"2_500.5", "2500500000000000000000000000"},
		{"0.3 TOK", "300000000000000000000000"},
		{".5", "500000000000000000000000"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.2.3", "0.1234567890123456789012345"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestParseRoundTripsToHuman(t *testing.T) {
	for _, s := range []string{"3.1932", "0.0214", "0.01", "0.0007", "42"} {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := ToHuman(v); got != s {
			t.Errorf("ToHuman(Parse(%q)) = %q", s, got)
		}
	}
}

func TestFromBaseUnits(t *testing.T) {
	got, err := FromBaseUnits("700000000000000000000")
	if err != nil {
		t.Fatalf("FromBaseUnits returned error: %v", err)
	}
	if got.String() != "700000000000000000000" {
		t.Errorf("FromBaseUnits = %s", got)
	}

	got, err = FromBaseUnits("0x10")
	if err != nil {
		t.Fatalf("FromBaseUnits hex returned error: %v", err)
	}
	if got.Int64() != 16 {
		t.Errorf("FromBaseUnits(0x10) = %s, want 16", got)
	}

	for _, in := range []string{"", "nope", "1.5"} {
		if _, err := FromBaseUnits(in); err == nil {
			t.Errorf("FromBaseUnits(%q) succeeded, want error", in)
		}
	}
}
