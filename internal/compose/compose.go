package compose

import (
	"strconv"
	"strings"

	"github.com/vibex/vibectx/internal/scope"
)

const documentHeading = "# Project Context"

// Document renders entries into the composed context document. The
// format is a contract consumed verbatim by clients:
//
//	# Project Context
//
//	## [{Label}] {SourcePath} (scope: {scope}, priority: {priority})
//
//	{content}
//
//	---
//
// Every entry contributes a header, its content, and a separator, each
// padded by one blank line. The document ends with a newline. With no
// entries only the heading line is emitted.
func Document(entries []scope.Entry) string {
	var b strings.Builder
	b.WriteString(documentHeading)
	b.WriteString("\n")

	for _, e := range entries {
		b.WriteString("\n## [")
		b.WriteString(e.Label)
		b.WriteString("] ")
		b.WriteString(e.SourcePath)
		b.WriteString(" (scope: ")
		b.WriteString(string(e.Scope))
		b.WriteString(", priority: ")
		b.WriteString(strconv.Itoa(e.Priority))
		b.WriteString(")\n\n")
		b.WriteString(e.Content)
		b.WriteString("\n\n---\n")
	}

	return b.String()
}
