package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	s := NewHTMLSanitizer()

	tests := []struct {
		name    string
		in      string
		keep    []string
		dropped []string
	}{
		{
			name:    "script removed",
			in:      `<p>hello</p><script>alert(1)</script>`,
			keep:    []string{"<p>hello</p>"},
			dropped: []string{"<script", "alert(1)"},
		},
		{
			name:    "event handler removed",
			in:      `<img src="https://img.devjourney.io/a.png" onerror="steal()">`,
			keep:    []string{`src="https://img.devjourney.io/a.png"`},
			dropped: []string{"onerror", "steal"},
		},
		{
			name:    "javascript link removed",
			in:      `<a href="javascript:alert(1)">x</a>`,
			dropped: []string{"javascript:"},
		},
		{
			name: "code language class kept",
			in:   `<pre><code class="language-go">fmt.Println()</code></pre>`,
			keep: []string{`class="language-go"`},
		},
		{
			name: "external link gets nofollow",
			in:   `<a href="https://go.dev">go</a>`,
			keep: []string{`rel="nofollow noopener"`, `target="_blank"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.in)
			for _, want := range tt.keep {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
			for _, bad := range tt.dropped {
				if strings.Contains(got, bad) {
					t.Errorf("did not expect %q in %q", bad, got)
				}
			}
		})
	}
}
