package htmlprocessor

import (
	"bytes"
	"fmt"
)

const headClose = "</head>"

// ShellAudit reports how tag injection will interact with an SPA shell
type ShellAudit struct {
	HeadCloseCount int
	Existing       *HeadSummary
	Warnings       []string
}

// Injectable reports whether the shell has the marker tags are inserted before
func (a *ShellAudit) Injectable() bool {
	return a.HeadCloseCount > 0
}

// AuditShell inspects the shell served for every page. Tags are injected
// before the first literal </head>, so existing SEO elements end up duplicated.
func AuditShell(shell []byte) (*ShellAudit, error) {
	doc, err := ParseWithDOM(shell)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shell: %w", err)
	}

	a := &ShellAudit{
		HeadCloseCount: bytes.Count(shell, []byte(headClose)),
		Existing:       doc.Head(),
	}

	switch {
	case a.HeadCloseCount == 0:
		a.Warnings = append(a.Warnings, "no literal </head> found: pages are served without SEO tags")
	case a.HeadCloseCount > 1:
		a.Warnings = append(a.Warnings, fmt.Sprintf("%d </head> markers found: only the first receives tags", a.HeadCloseCount))
	}

	h := a.Existing
	if h.TitleCount > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("shell already has <title>%s</title>: pages will carry two titles", h.Title))
	}
	if h.DescriptionCount > 0 {
		a.Warnings = append(a.Warnings, "shell already has a meta description")
	}
	if h.CanonicalCount > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("shell already has a canonical link (%s)", h.Canonical))
	}
	if len(h.OpenGraph) > 0 || len(h.Twitter) > 0 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("shell already has %d Open Graph and %d Twitter tags", len(h.OpenGraph), len(h.Twitter)))
	}

	return a, nil
}
