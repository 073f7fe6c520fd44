// Package combo extracts email:password records from uploaded combo text.
package combo

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/yourorg/isp-sorter/internal/types"
)

// Separator splits the email from the password. Only its first occurrence counts.
const Separator = ":"

// bom is the UTF-8 byte order mark Windows editors put at the start of a file.
const bom = "\ufeff"

// space matches what browsers treat as whitespace: ASCII spaces, \v, every
// Unicode separator and U+FEFF.
const space = `\s\v\p{Z}\x{feff}`

var emailRe = regexp.MustCompile(`^[^` + space + `@]+@[^` + space + `@]+\.[^` + space + `@]+$`)

// ValidEmail reports whether s looks like local@domain.tld with no
// whitespace anywhere.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ParseLine turns a single line into a record. ok is false for blank lines,
// lines without a separator and lines whose email part is malformed.
func ParseLine(line string) (rec types.EmailRecord, ok bool) {
	if strings.TrimSpace(line) == "" {
		return types.EmailRecord{}, false
	}
	email, password, found := strings.Cut(line, Separator)
	if !found {
		return types.EmailRecord{}, false
	}
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return types.EmailRecord{}, false
	}
	return types.EmailRecord{Email: email, Password: strings.TrimSpace(password)}, true
}

// Parse returns the records of content in line order. Malformed lines are
// skipped; an empty result is not an error.
func Parse(content string) []types.EmailRecord {
	content = strings.TrimPrefix(content, bom)
	out := make([]types.EmailRecord, 0, strings.Count(content, "\n")+1)
	for _, line := range strings.Split(content, "\n") {
		if rec, ok := ParseLine(strings.TrimSuffix(line, "\r")); ok {
			out = append(out, rec)
		}
	}
	return out
}

// ParseReader is the streaming form of Parse and accepts the same lines,
// however long. It also reports how many non-empty lines were seen and how
// many of them were dropped.
func ParseReader(r io.Reader) ([]types.EmailRecord, types.ParseStats, error) {
	var st types.ParseStats
	br := bufio.NewReaderSize(r, 64*1024)
	out := make([]types.EmailRecord, 0, 1024)
	first := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, st, err
		}
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if strings.TrimSpace(line) != "" {
			st.Lines++
			if rec, ok := ParseLine(line); ok {
				st.Accepted++
				out = append(out, rec)
			} else {
				st.Dropped++
			}
		}
		if err == io.EOF {
			return out, st, nil
		}
	}
}
