// Package wikilink parses [[target]] and [[target|display]] references
// and answers position queries used by link navigation and completion.
package wikilink

import (
	"regexp"
	"strings"
)

var linkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)

// Link is one parsed wiki-link occurrence. Start and End are byte offsets
// into the content, spanning the full [[...]] match.
type Link struct {
	Target  string `json:"target"`
	Display string `json:"display,omitempty"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Text returns the text that should be rendered for the link.
func (l Link) Text() string {
	if l.Display != "" {
		return l.Display
	}
	return l.Target
}

// Parse extracts all wiki-links from content in document order.
// Captured target and display text are trimmed of surrounding whitespace.
// Unterminated brackets on the same line may be consumed into a single
// match; that is accepted behavior.
func Parse(content string) []Link {
	idx := linkRe.FindAllStringSubmatchIndex(content, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Link, 0, len(idx))
	for _, m := range idx {
		l := Link{
			Target: strings.TrimSpace(content[m[2]:m[3]]),
			Start:  m[0],
			End:    m[1],
		}
		if m[4] >= 0 {
			l.Display = strings.TrimSpace(content[m[4]:m[5]])
		}
		if l.Target == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// At returns the link whose span contains offset, inclusive on both ends,
// or nil when the offset is not inside any link. First match wins.
func At(content string, offset int) *Link {
	for _, l := range Parse(content) {
		if offset >= l.Start && offset <= l.End {
			return &l
		}
	}
	return nil
}

// Partial returns the target text typed so far when offset sits inside a
// wiki-link that is still being written, e.g. "[[My No" with the cursor at
// the end. It scans backward for the opening brackets, giving up at a
// newline or a closing "]]" (the link boundary was left), then forward to
// "]]", "|", or end of line.
func Partial(content string, offset int) (string, bool) {
	if offset < 0 || offset > len(content) {
		return "", false
	}

	start := -1
	for i := offset - 1; i >= 1; i-- {
		if content[i] == '\n' {
			return "", false
		}
		if content[i] == ']' && content[i-1] == ']' {
			return "", false
		}
		if content[i] == '[' && content[i-1] == '[' {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := offset
	for end < len(content) {
		c := content[end]
		if c == '\n' || c == '|' {
			break
		}
		if c == ']' && end+1 < len(content) && content[end+1] == ']' {
			break
		}
		end++
	}

	return content[start:end], true
}

// Format serializes a wiki-link. An empty display renders as [[target]].
func Format(target, display string) string {
	if display == "" || display == target {
		return "[[" + target + "]]"
	}
	return "[[" + target + "|" + display + "]]"
}
