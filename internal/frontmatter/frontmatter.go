// Package frontmatter extracts YAML frontmatter, titles, tags, and aliases
// from Markdown content.
package frontmatter

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	inlineTagRe = regexp.MustCompile(`(?:^|\s)#([a-zA-Z0-9_-]+)`)
	headingRe   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Meta is the parsed frontmatter key/value map. A nil Meta is valid and
// behaves as empty.
type Meta map[string]any

// Split separates a leading YAML frontmatter block (between --- delimiters)
// from the Markdown body. Missing or invalid frontmatter falls back to
// treating the whole content as body; Split never fails.
func Split(data []byte) (Meta, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var m Meta
	if err := yaml.Unmarshal(yamlBlock, &m); err != nil {
		return nil, string(data)
	}
	return m, body
}

// Title derives a note title: frontmatter "title", else the first H1
// heading in the body, else the basename without its .md extension.
func (m Meta) Title(body, basename string) string {
	if m != nil {
		if s, ok := m["title"].(string); ok && s != "" {
			return s
		}
	}
	if h := headingRe.FindStringSubmatch(body); h != nil {
		return strings.TrimSpace(h[1])
	}
	return strings.TrimSuffix(basename, ".md")
}

// Aliases returns the frontmatter "aliases" field as a string slice,
// accepting either a scalar or a list.
func (m Meta) Aliases() []string {
	if m == nil {
		return nil
	}
	return stringList(m["aliases"])
}

// Tags returns the union of frontmatter tags and inline #tags from the
// body, normalized, deduplicated, and sorted. Tags inside fenced code
// blocks are still matched; that is a documented limitation.
func (m Meta) Tags(body string) []string {
	seen := make(map[string]struct{})

	if m != nil {
		for _, t := range stringList(m["tags"]) {
			if n := NormalizeTag(t); n != "" {
				seen[n] = struct{}{}
			}
		}
	}
	for _, match := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		if n := NormalizeTag(match[1]); n != "" {
			seen[n] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NormalizeTag lowercases a tag and strips any leading '#'. Applying it
// twice yields the same string.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// stringList coerces a YAML scalar-or-sequence value to a string slice.
func stringList(raw any) []string {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	default:
		return nil
	}
}
