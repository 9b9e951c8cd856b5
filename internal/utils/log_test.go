package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in    string
		limit int
		want  string
	}{
		"disabled preview":      {in: "Tell me about yourself.", limit: 0, want: ""},
		"fits":                  {in: "Why Go?", limit: 20, want: "Why Go?"},
		"exact length":          {in: "Why Go?", limit: 7, want: "Why Go?"},
		"cut question":          {in: "Describe a hard bug you fixed.", limit: 10, want: "Describe a..."},
		"counts runes":          {in: "Résumé review", limit: 6, want: "Résumé..."},
		"whitespace is dropped": {in: "\n  Overall Score: 80\n", limit: 7, want: "Overall..."},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tc.in, tc.limit); got != tc.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
			}
		})
	}
}
