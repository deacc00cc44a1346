package engine

import "testing"

func TestCleanCaptionText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		esc  CaptionEscaping
		want string
	}{
		{"plain", "hello world", EscapedTwice, "hello world"},
		{"legacy single escape", "rock &amp; roll", EscapedTwice, "rock & roll"},
		{"legacy double escape", "rock &amp;amp; roll", EscapedTwice, "rock & roll"},
		{"legacy apostrophe", "it&amp;#39;s", EscapedTwice, "it's"},
		{"legacy quotes", "&quot;hi&quot;", EscapedTwice, `"hi"`},
		{"legacy font tag", `&lt;font color=&quot;#E5E5E5&quot;&gt;hey&lt;/font&gt; there`, EscapedTwice, "hey there"},
		{"legacy literal less-than", "if a&amp;lt;b then", EscapedTwice, "if a<b then"},
		{"italic", "<i>whisper</i>", EscapedTwice, "whisper"},
		{"newlines collapsed", "line one\nline two", EscapedTwice, "line one line two"},
		{"runs of spaces", "  a   b  ", EscapedTwice, "a b"},
		{"lone less-than", "a < b", EscapedTwice, "a < b"},
		{"empty", "", EscapedTwice, ""},
		{"only markup", "<b></b>", EscapedTwice, ""},
		{"format3 literal less-than", "a &lt;b then", EscapedOnce, "a <b then"},
		{"format3 less-than mid cue", "x &lt;y and more", EscapedOnce, "x <y and more"},
		{"format3 no space", "if a&lt;b then", EscapedOnce, "if a<b then"},
		{"format3 entity text kept", "AT&amp;T &amp;copy 2024", EscapedOnce, "AT&T &copy 2024"},
		{"format3 runs", `<s ac="0">never</s><s t="400"> gonna</s>`, EscapedOnce, "never gonna"},
		{"format3 plain", "Hello world", EscapedOnce, "Hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCaptionText(tt.in, tt.esc); got != tt.want {
				t.Errorf("CleanCaptionText(%q, %d) = %q, want %q", tt.in, tt.esc, got, tt.want)
			}
		})
	}
}

func TestTruncateRunesShort(t *testing.T) {
	if got := TruncateRunes("short", 10, "..."); got != "short" {
		t.Errorf("got %q, want unchanged", got)
	}
}
