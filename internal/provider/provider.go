// Package provider maps email addresses to coarse mail-provider tags.
package provider

import (
	"sort"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"

	"github.com/yourorg/isp-sorter/internal/types"
)

const (
	Gmail      = "gmail"
	Outlook    = "outlook"
	Yahoo      = "yahoo"
	Hotmail    = "hotmail"
	AOL        = "aol"
	ICloud     = "icloud"
	ProtonMail = "protonmail"
	Zoho       = "zoho"
	Other      = "other"
	// Invalid is returned for addresses without a domain. It has no color of
	// its own and is not part of Tags.
	Invalid = "invalid"
)

type signature struct {
	substr string
	tag    string
}

// signatures is evaluated in order and the first containment match wins,
// so "live.gmail.example" is gmail, not outlook.
var signatures = []signature{
	{"gmail", Gmail},
	{"outlook", Outlook},
	{"live", Outlook},
	{"msn", Outlook},
	{"yahoo", Yahoo},
	{"hotmail", Hotmail},
	{"aol", AOL},
	{"icloud", ICloud},
	{"me.com", ICloud},
	{"mac.com", ICloud},
	{"protonmail", ProtonMail},
	{"pm.me", ProtonMail},
	{"zoho", Zoho},
}

var colors = map[string]string{
	Gmail:      "#DB4437",
	Outlook:    "#0072C6",
	Yahoo:      "#720E9E",
	Hotmail:    "#00A4EF",
	AOL:        "#FF0000",
	ICloud:     "#999999",
	ProtonMail: "#8A2BE2",
	Zoho:       "#F48024",
	Other:      "#6E7780",
}

// Domain returns the lowercased part after the last '@', or "" if there is none.
func Domain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// Classify returns the provider tag of email.
func Classify(email string) string {
	d := Domain(email)
	if d == "" {
		return Invalid
	}
	for _, s := range signatures {
		if strings.Contains(d, s.substr) {
			return s.tag
		}
	}
	return Other
}

// Color returns the display color for tag, falling back to the "other" color.
func Color(tag string) string {
	if c, ok := colors[strings.ToLower(tag)]; ok {
		return c
	}
	return colors[Other]
}

// Tags lists every tag Classify can assign to a well-formed address, in
// signature order, with "other" last.
func Tags() []string {
	out := make([]string, 0, len(colors))
	seen := make(map[string]bool, len(colors))
	for _, s := range signatures {
		if !seen[s.tag] {
			seen[s.tag] = true
			out = append(out, s.tag)
		}
	}
	return append(out, Other)
}

// TopDomains counts records per canonical domain and returns the n largest
// (all when n <= 0), ordered by count then domain name. Domains that are not
// valid DNS names are skipped.
func TopDomains(records []types.EmailRecord, n int) []types.DomainCount {
	counts := make(map[string]int)
	for _, r := range records {
		d := Domain(r.Email)
		if d == "" {
			continue
		}
		canon := dns.CanonicalName(d)
		if _, ok := dns.IsDomainName(canon); !ok {
			continue
		}
		counts[strings.TrimSuffix(canon, ".")]++
	}
	out := make([]types.DomainCount, 0, len(counts))
	for d, c := range counts {
		display := d
		if u, err := idna.ToUnicode(d); err == nil {
			display = u
		}
		out = append(out, types.DomainCount{Domain: d, Display: display, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
