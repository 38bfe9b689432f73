// internal/util/util_test.go
package util

import "testing"

func TestSnippet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "collapses whitespace", in: "thin\n\n crust   pizza", max: 0, want: "thin crust pizza"},
		{name: "short enough", in: "great pizza", max: 20, want: "great pizza"},
		{name: "cut at rune boundary", in: "great pizza", max: 6, want: "great…"},
		{name: "multibyte", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Snippet(tt.in, tt.max); got != tt.want {
				t.Fatalf("Snippet(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrapToWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "wrap words", text: "one two three four", width: 10, want: "one two\nthree four"},
		{name: "split long word", text: "abcdefghij", width: 4, want: "abcd\nefgh\nij"},
		{name: "keeps blank lines", text: "a\n\nb", width: 5, want: "a\n\nb"},
		{name: "zero width", text: "one two", width: 0, want: "one two"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WrapToWidth(tt.text, tt.width); got != tt.want {
				t.Fatalf("WrapToWidth mismatch\nwant:\n%q\ngot:\n%q", tt.want, got)
			}
		})
	}
}

func TestIndent(t *testing.T) {
	t.Parallel()

	if got := Indent("a\n\nb", "  "); got != "  a\n\n  b" {
		t.Fatalf("unexpected indent %q", got)
	}
}
