package mailparse

import "testing"

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Paragraphs", input: "<p>One</p><p>Two</p>", expected: "One\nTwo"},
		{name: "Inline elements stay on one line", input: "<div>Hello <b>World</b>!</div>", expected: "Hello World!"},
		{name: "Line break", input: "Line1<br>Line2", expected: "Line1\nLine2"},
		{name: "Entities and style", input: "<style>p{}</style><p>x &amp; y</p>", expected: "x & y"},
		{name: "Table row", input: "<table><tr><td>a</td><td>b</td></tr></table>", expected: "a b"},
		{name: "List", input: "<ul><li>one</li><li>two</li></ul>", expected: "one\ntwo"},
		{name: "Comment dropped", input: "<p>a<!-- hidden -->b</p>", expected: "ab"},
		{name: "Whitespace collapsed", input: "<p>  lots\n\n of   space </p>", expected: "lots of space"},
		{name: "Empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLToText(tt.input); got != tt.expected {
				t.Errorf("HTMLToText() = %q, want %q", got, tt.expected)
			}
		})
	}
}
