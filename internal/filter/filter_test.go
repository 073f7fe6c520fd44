package filter

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/yourorg/isp-sorter/internal/types"
)

var sample = []types.EmailRecord{
	{Email: "a@gmail.com", Password: "p1", BounceStatus: types.StatusValid},
	{Email: "b@yahoo.com", Password: "p2", BounceStatus: types.StatusValid},
	{Email: "c@gmail.com", Password: "p3", BounceStatus: types.StatusBounced},
	{Email: "d@example.org", Password: "p4", BounceStatus: types.StatusUnknown},
}

func TestEmails(t *testing.T) {
	cases := []struct {
		name     string
		selected []string
		bounced  bool
		want     []string
	}{
		{"all with bounced", nil, true, []string{"a@gmail.com", "b@yahoo.com", "c@gmail.com", "d@example.org"}},
		{"all without bounced", nil, false, []string{"a@gmail.com", "b@yahoo.com", "d@example.org"}},
		{"gmail with bounced", []string{"gmail"}, true, []string{"a@gmail.com", "c@gmail.com"}},
		{"gmail without bounced", []string{"gmail"}, false, []string{"a@gmail.com"}},
		{"yahoo without bounced", []string{"yahoo"}, false, []string{"b@yahoo.com"}},
		{"unknown kept", []string{"other"}, false, []string{"d@example.org"}},
		{"no match", []string{"zoho"}, true, []string{}},
		{"empty set is all", []string{}, true, []string{"a@gmail.com", "b@yahoo.com", "c@gmail.com", "d@example.org"}},
	}
	for _, tc := range cases {
		got := Emails(sample, tc.selected, tc.bounced)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v; want %v", tc.name, got, tc.want)
		}
		if again := Emails(sample, tc.selected, tc.bounced); !reflect.DeepEqual(again, got) {
			t.Fatalf("%s: second run differs: %v vs %v", tc.name, again, got)
		}
	}
}

func TestEmailsBouncedYahoo(t *testing.T) {
	recs := []types.EmailRecord{{Email: "b@yahoo.com", BounceStatus: types.StatusBounced}}
	if got := Emails(recs, []string{"yahoo"}, false); len(got) != 0 {
		t.Fatalf("got %v; want none", got)
	}
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 45, 123_000_000, time.FixedZone("CEST", 2*3600))
	want := "filtered_emails_2024_05_01T10_30_45_123Z.txt"
	if got := ExportFilename(ts); got != want {
		t.Fatalf("ExportFilename=%q; want %q", got, want)
	}
}

func TestWriteExport(t *testing.T) {
	emails := []string{"a@gmail.com", "b@yahoo.com"}
	var buf bytes.Buffer
	n, err := WriteExport(&buf, emails)
	if err != nil {
		t.Fatalf("WriteExport err: %v", err)
	}
	if buf.String() != Render(emails) || buf.String() != "a@gmail.com\nb@yahoo.com" {
		t.Fatalf("export=%q", buf.String())
	}
	if n != buf.Len() {
		t.Fatalf("n=%d; wrote %d", n, buf.Len())
	}
	buf.Reset()
	if _, err := WriteExport(&buf, nil); err != nil || buf.Len() != 0 {
		t.Fatalf("empty export: %q %v", buf.String(), err)
	}
}

func TestParseProviders(t *testing.T) {
	cases := map[string][]string{
		"":                nil,
		"gmail":           {"gmail"},
		" Gmail , yahoo,": {"gmail", "yahoo"},
		"gmail,all":       nil,
		"ALL":             nil,
	}
	for in, want := range cases {
		if got := ParseProviders(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseProviders(%q)=%v; want %v", in, got, want)
		}
	}
}
