package utils_test

import (
	"testing"

	"github.com/biasnet/influence/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCompressAllWhitespace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single space", input: "hello world", want: "hello world"},
		{name: "multiple spaces", input: "hello    world", want: "hello world"},
		{name: "newlines and spaces", input: "hello\n\n  world  \n\n", want: "hello world"},
		{name: "tabs and spaces", input: "hello\t\t  world", want: "hello world"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \n\t   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CompressAllWhitespace(tt.input))
		})
	}
}

func TestCompressWhitespacePreserveNewlines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single line",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "multiple lines",
			input: "hello    world\n   this  is  a  test\n preserve  newlines",
			want:  "hello world\nthis is a test\npreserve newlines",
		},
		{
			name:  "one blank line kept",
			input: "\nhello    world\n\nthis  is  a  test\n",
			want:  "hello world\n\nthis is a test",
		},
		{
			name:  "blank runs collapse",
			input: "first\n\n\n\n\nsecond",
			want:  "first\n\nsecond",
		},
		{
			name:  "mixed line endings",
			input: "hello    world\r\nthis  is  a  test\rpreserve  newlines",
			want:  "hello world\nthis is a test\npreserve newlines",
		},
		{
			name:  "only whitespace",
			input: "   \n\t   \n   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CompressWhitespacePreserveNewlines(tt.input))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "shorter than limit", input: "abc", n: 5, want: "abc"},
		{name: "exact limit", input: "abc", n: 3, want: "abc"},
		{name: "ascii cut", input: "abcdef", n: 4, want: "abcd"},
		{name: "multibyte cut", input: "héllo wörld", n: 7, want: "héllo w"},
		{name: "zero limit", input: "abc", n: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.TruncateRunes(tt.input, tt.n))
		})
	}
}
