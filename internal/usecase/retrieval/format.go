package retrieval

import (
	"fmt"
	"strings"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// FormatForPrompt renders an ordered retrieval result as plain labeled text
// blocks for injection into a model prompt. Returns the empty string for an
// empty result; callers must skip the doc section entirely in that case.
//
// Each entry renders under a "### <ID>" heading, so the ordered id set can
// be recovered from the rendered text.
func FormatForPrompt(entries []docs.Entry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant kOS documentation:\n")
	for _, e := range entries {
		b.WriteString("\n### ")
		b.WriteString(e.ID)
		switch {
		case e.Type == docs.Suffix && e.ParentStructure != "":
			fmt.Fprintf(&b, " (suffix of %s)", e.ParentStructure)
		default:
			fmt.Fprintf(&b, " (%s)", e.Type)
		}
		b.WriteString("\n")

		if e.Signature != "" {
			fmt.Fprintf(&b, "Signature: %s\n", e.Signature)
		}
		if e.ReturnType != "" {
			fmt.Fprintf(&b, "Returns: %s\n", e.ReturnType)
		}
		if e.Access != docs.AccessNone {
			fmt.Fprintf(&b, "Access: %s\n", e.Access)
		}
		if e.Deprecated {
			note := e.DeprecationNote
			if note == "" {
				note = "deprecated"
			}
			fmt.Fprintf(&b, "Deprecated: %s\n", note)
		}
		if e.Description != "" {
			b.WriteString(e.Description)
			b.WriteString("\n")
		}
		if e.Snippet != "" {
			b.WriteString("Example:\n")
			b.WriteString(indent(e.Snippet))
		}
	}
	return b.String()
}

// ParsePromptIDs recovers the ordered entry ids from a FormatForPrompt block.
func ParsePromptIDs(block string) []string {
	var ids []string
	for _, line := range strings.Split(block, "\n") {
		rest, ok := strings.CutPrefix(line, "### ")
		if !ok {
			continue
		}
		id, _, _ := strings.Cut(rest, " ")
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
