// Package frontmatter reads and writes the tag list of a journal file, either from
// a leading YAML block or from inline #hashtags on the file's third line.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// inlineLine is the zero-based line scanned for inline hashtags.
const inlineLine = 2

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}\p{M}_-]+)`)

// Kind classifies the outcome of Decode.
type Kind int

const (
	// NoBlock means there is no parseable front-matter mapping at the top of the file.
	NoBlock Kind = iota
	// Malformed means a mapping exists but its tags key is missing or not a list of strings.
	Malformed
	// Valid means the mapping carries a list of string tags.
	Valid
)

func (k Kind) String() string {
	switch k {
	case NoBlock:
		return "no_block"
	case Malformed:
		return "malformed"
	case Valid:
		return "valid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is the decoded front-matter state. Tags is set only when Kind is Valid.
type Result struct {
	Kind Kind
	Tags []string
}

// SplitLines splits data into lines, keeping line terminators. A trailing newline
// does not start an extra empty line.
func SplitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Decode looks for a front-matter block starting at line 0.
func Decode(lines []string) Result {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delim {
		return Result{Kind: NoBlock}
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			end = i
			break
		}
	}
	if end < 0 {
		return Result{Kind: NoBlock}
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "")), &fm); err != nil {
		return Result{Kind: NoBlock}
	}

	raw, ok := fm["tags"]
	if !ok {
		return Result{Kind: Malformed}
	}
	items, ok := raw.([]any)
	if !ok {
		return Result{Kind: Malformed}
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return Result{Kind: Malformed}
		}
		tags = append(tags, s)
	}
	return Result{Kind: Valid, Tags: tags}
}

// Inline returns the distinct #hashtags on the third line, in first-seen order.
// It returns nil when the file is shorter than three lines or has no hashtags there.
func Inline(lines []string) []string {
	if len(lines) <= inlineLine {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, m := range hashtagRe.FindAllStringSubmatch(lines[inlineLine], -1) {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// Encode renders a front-matter block holding only tags, followed by one blank line.
// Sequence items start at column 0; each tag is quoted by yaml.v3 when needed.
func Encode(tags []string) ([]byte, error) {
	var out bytes.Buffer
	out.WriteString(delim + "\n")
	if len(tags) == 0 {
		out.WriteString("tags: []\n")
	} else {
		out.WriteString("tags:\n")
		for _, tag := range tags {
			scalar, err := yaml.Marshal(tag)
			if err != nil {
				return nil, fmt.Errorf("frontmatter: encode %q: %w", tag, err)
			}
			out.WriteString("- ")
			out.Write(bytes.TrimRight(scalar, "\n"))
			out.WriteString("\n")
		}
	}
	out.WriteString(delim + "\n\n")
	return out.Bytes(), nil
}

// Inject prepends a block for tags to data. The existing content is kept verbatim.
func Inject(data []byte, tags []string) ([]byte, error) {
	head, err := Encode(tags)
	if err != nil {
		return nil, err
	}
	return append(head, data...), nil
}
