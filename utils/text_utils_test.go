package utils

import "testing"

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		value *float64
		want  string
	}{
		{nil, ""},
		{fptr(0), "$0"},
		{fptr(950), "$950"},
		{fptr(42500), "$42,500"},
		{fptr(1250000), "$1,250,000"},
		{fptr(28000.4), "$28,000"},
		{fptr(-3200), "-$3,200"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.value); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func fptr(v float64) *float64 { return &v }

func TestExtractJSONObject(t *testing.T) {
	text := "Sure! Here is the result:\n```json\n{\"score\": 82, \"explanation\": \"Good fit.\"}\n```"
	want := `{"score": 82, "explanation": "Good fit."}`
	if got := ExtractJSONObject(text); got != want {
		t.Errorf("ExtractJSONObject = %q, want %q", got, want)
	}

	if got := ExtractJSONObject("no braces here"); got != "" {
		t.Errorf("ExtractJSONObject on plain text = %q, want empty", got)
	}
}

func TestExtractJSONArray(t *testing.T) {
	text := `Recommendations: [{"title": "A", "description": "B"}] - enjoy`
	want := `[{"title": "A", "description": "B"}]`
	if got := ExtractJSONArray(text); got != want {
		t.Errorf("ExtractJSONArray = %q, want %q", got, want)
	}
}

func TestParseBoolFlag(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "Yes"} {
		if !ParseBoolFlag(v) {
			t.Errorf("ParseBoolFlag(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "no", "maybe"} {
		if ParseBoolFlag(v) {
			t.Errorf("ParseBoolFlag(%q) = true, want false", v)
		}
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		value string
		max   int
		want  int
	}{
		{"", 10, 10},
		{"abc", 10, 10},
		{"3", 10, 3},
		{"0", 10, 1},
		{"-5", 10, 1},
		{"25", 10, 10},
	}
	for _, tc := range cases {
		if got := ParseLimit(tc.value, tc.max); got != tc.want {
			t.Errorf("ParseLimit(%q, %d) = %d, want %d", tc.value, tc.max, got, tc.want)
		}
	}
}
