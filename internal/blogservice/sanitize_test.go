package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMarkdown(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no script tag",
			input: "Hello, World!",
			want:  "Hello, World!",
		},
		{
			name:  "script tag",
			input: "<script>alert('Hello, World!');</script>",
			want:  "",
		},
		{
			name:  "multiple script tags",
			input: "Here is some text.\n<script>alert('Hello, world!');</script>\nMore text.\n<SCRIPT SRC=\"evil.js\"></SCRIPT>",
			want:  "Here is some text.\n\nMore text.\n",
		},
		{
			name:  "script spanning lines",
			input: "# Title\n<script>\nfetch('/steal')\n</script>\nBody",
			want:  "# Title\n\nBody",
		},
		{
			name:  "code fence mentioning script",
			input: "Use `script` tags with care.",
			want:  "Use `script` tags with care.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := sanitizeMarkdown(tc.input)
			assert.Equal(t, tc.want, output)
		})
	}
}
