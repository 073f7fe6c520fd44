package provider

import (
	"testing"

	"github.com/yourorg/isp-sorter/internal/types"
)

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"a@gmail.com":           Gmail,
		"a@GMAIL.COM":           Gmail,
		"a@googlemail.com":      Other,
		"a@outlook.com":         Outlook,
		"a@live.co.uk":          Outlook,
		"a@msn.com":             Outlook,
		"a@yahoo.co.jp":         Yahoo,
		"a@hotmail.fr":          Hotmail,
		"a@aol.com":             AOL,
		"a@icloud.com":          ICloud,
		"a@me.com":              ICloud,
		"a@mac.com":             ICloud,
		"a@protonmail.ch":       ProtonMail,
		"a@pm.me":               ProtonMail,
		"a@zoho.eu":             Zoho,
		"a@example.org":         Other,
		"no-domain":             Invalid,
		"trailing@":             Invalid,
		"a@live.gmail.example":  Gmail,   // gmail is listed before live
		"a@hotmail-live.com":    Outlook, // live is listed before hotmail
		"a@olive.com":           Outlook,
		"x@y@yahoo.com":         Yahoo,
		"a@some.home.com.store": ICloud,
	}
	for in, want := range cases {
		if got := Classify(in); got != want {
			t.Fatalf("Classify(%q)=%q; want %q", in, got, want)
		}
	}
}

func TestColor(t *testing.T) {
	if got := Color(Gmail); got != "#DB4437" {
		t.Fatalf("Color(gmail)=%q", got)
	}
	if got := Color("Yahoo"); got != "#720E9E" {
		t.Fatalf("Color(Yahoo)=%q", got)
	}
	other := Color(Other)
	for _, tag := range []string{Invalid, "nope", ""} {
		if got := Color(tag); got != other {
			t.Fatalf("Color(%q)=%q; want other color %q", tag, got, other)
		}
	}
}

func TestTags(t *testing.T) {
	want := []string{Gmail, Outlook, Yahoo, Hotmail, AOL, ICloud, ProtonMail, Zoho, Other}
	got := Tags()
	if len(got) != len(want) {
		t.Fatalf("Tags()=%v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tags()[%d]=%q; want %q", i, got[i], want[i])
		}
	}
}

func TestTopDomains(t *testing.T) {
	recs := []types.EmailRecord{
		{Email: "a@gmail.com"},
		{Email: "b@Gmail.com"},
		{Email: "c@yahoo.com"},
		{Email: "d@xn--bcher-kva.example"},
		{Email: "e@aol.com"},
		{Email: "nodomain"},
	}
	got := TopDomains(recs, 0)
	if len(got) != 4 {
		t.Fatalf("got %d domains; want 4: %+v", len(got), got)
	}
	if got[0].Domain != "gmail.com" || got[0].Count != 2 {
		t.Fatalf("first=%+v; want gmail.com x2", got[0])
	}
	// ties broken by name
	if got[1].Domain != "aol.com" || got[2].Domain != "xn--bcher-kva.example" || got[3].Domain != "yahoo.com" {
		t.Fatalf("tie order wrong: %+v", got)
	}
	if got[2].Display != "bücher.example" {
		t.Fatalf("display=%q; want unicode form", got[2].Display)
	}
	if top := TopDomains(recs, 1); len(top) != 1 || top[0].Domain != "gmail.com" {
		t.Fatalf("TopDomains(n=1)=%+v", top)
	}
}

func TestDomain(t *testing.T) {
	cases := map[string]string{
		"a@Gmail.COM":   "gmail.com",
		"x@y@yahoo.com": "yahoo.com",
		"trailing@":     "",
		"no-domain":     "",
	}
	for in, want := range cases {
		if got := Domain(in); got != want {
			t.Fatalf("Domain(%q)=%q; want %q", in, got, want)
		}
	}
}
