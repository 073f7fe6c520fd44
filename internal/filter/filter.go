// Package filter selects the emails of a processed upload for export.
package filter

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/yourorg/isp-sorter/internal/provider"
	"github.com/yourorg/isp-sorter/internal/types"
)

// Criteria is the user's current filter choice. An empty Providers set
// selects every provider.
type Criteria struct {
	Providers      []string
	IncludeBounced bool
}

// match reports whether r, classified as tag, passes c.
func (c Criteria) match(tag string, r types.EmailRecord, sel map[string]bool) bool {
	if len(sel) > 0 && !sel[tag] {
		return false
	}
	return c.IncludeBounced || r.BounceStatus != types.StatusBounced
}

// Emails returns the addresses of the records passing the filter, in input
// order. Passwords and statuses are not part of the output.
func Emails(records []types.EmailRecord, selected []string, includeBounced bool) []string {
	return Criteria{Providers: selected, IncludeBounced: includeBounced}.Apply(records)
}

func (c Criteria) Apply(records []types.EmailRecord) []string {
	sel := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		sel[p] = true
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		if c.match(provider.Classify(r.Email), r, sel) {
			out = append(out, r.Email)
		}
	}
	return out
}

// ExportFilename names an export created at t, e.g.
// filtered_emails_2024_05_01T12_30_45_123Z.txt.
func ExportFilename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "_", ".", "_", "-", "_").Replace(ts)
	return "filtered_emails_" + ts + ".txt"
}

// Render joins emails with newlines, without a trailing newline.
func Render(emails []string) string { return strings.Join(emails, "\n") }

// WriteExport writes Render(emails) to w and returns the bytes written.
func WriteExport(w io.Writer, emails []string) (int, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	n := 0
	for i, e := range emails {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return n, err
			}
			n++
		}
		m, err := bw.WriteString(e)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ParseProviders reads a comma-separated provider selection such as
// "gmail, Yahoo". "all" anywhere in the list selects every provider, which
// is the same as an empty selection.
func ParseProviders(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		switch p {
		case "":
			continue
		case "all":
			return nil
		}
		out = append(out, p)
	}
	return out
}
