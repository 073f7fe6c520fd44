package combo

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	cases := map[string]struct {
		email, password string
		ok              bool
	}{
		"a@gmail.com:p1":              {"a@gmail.com", "p1", true},
		"  a@gmail.com  :  secret  ":  {"a@gmail.com", "secret", true},
		"a@gmail.com:pa:ss:word":      {"a@gmail.com", "pa:ss:word", true},
		"a@gmail.com:":                {"a@gmail.com", "", true},
		"invalidline":                 {"", "", false},
		"no-at.example.com:pw":        {"", "", false},
		"a@nodot:pw":                  {"", "", false},
		"a b@gmail.com:pw":            {"", "", false},
		"a@@gmail.com:pw":             {"", "", false},
		"   ":                         {"", "", false},
		"user@mail.example.co.uk:x:y": {"user@mail.example.co.uk", "x:y", true},
	}
	for in, want := range cases {
		rec, ok := ParseLine(in)
		if ok != want.ok {
			t.Fatalf("ParseLine(%q) ok=%v; want %v", in, ok, want.ok)
		}
		if !ok {
			continue
		}
		if rec.Email != want.email || rec.Password != want.password {
			t.Fatalf("ParseLine(%q)=(%q,%q); want (%q,%q)", in, rec.Email, rec.Password, want.email, want.password)
		}
		if rec.BounceStatus != "" {
			t.Fatalf("ParseLine(%q) status=%q; want unset", in, rec.BounceStatus)
		}
	}
}

func TestParseKeepsLineOrder(t *testing.T) {
	in := "a@gmail.com:p1\r\nb@yahoo.com:p2\ninvalidline\n\n  \nc@gmail.com:p3"
	recs := Parse(in)
	want := []string{"a@gmail.com", "b@yahoo.com", "c@gmail.com"}
	if len(recs) != len(want) {
		t.Fatalf("got %d records; want %d", len(recs), len(want))
	}
	for i, w := range want {
		if recs[i].Email != w {
			t.Fatalf("recs[%d]=%q; want %q", i, recs[i].Email, w)
		}
	}
	if recs[0].Password != "p1" {
		t.Fatalf("CRLF not stripped from password: %q", recs[0].Password)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "\n\n", "garbage\nmore garbage"} {
		if recs := Parse(in); len(recs) != 0 {
			t.Fatalf("Parse(%q) returned %d records; want 0", in, len(recs))
		}
	}
}

func TestParseReaderStats(t *testing.T) {
	in := "a@gmail.com:p1\nb@yahoo.com:p2\ninvalidline\n\nc@gmail.com:p3\n"
	recs, st, err := ParseReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseReader err: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records; want 3", len(recs))
	}
	if st.Lines != 4 || st.Accepted != 3 || st.Dropped != 1 {
		t.Fatalf("stats=%+v; want {4 3 1}", st)
	}
	again := Parse(in)
	for i := range recs {
		if recs[i] != again[i] {
			t.Fatalf("ParseReader and Parse disagree at %d: %+v vs %+v", i, recs[i], again[i])
		}
	}
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"a@gmail.com":              true,
		"a.b+c@mail.co.uk":         true,
		"a@gmail":                  false,
		"a@@gmail.com":             false,
		"a b@gmail.com":            false,
		"a\tb@gmail.com":           false,
		"a\vb@gmail.com":           false,
		"a\u00a0b@gmail.com":       false,
		"a\u2028b@x.com":           false,
		"a\u3000b@x.com":           false,
		"a@gmail\u2009.com":        false,
		"\ufeffa@gmail.com":        false,
		"a@gm\ufeffail.com":        false,
		"\u00fcser@b\u00fccher.de": true,
	}
	for in, want := range cases {
		if got := ValidEmail(in); got != want {
			t.Fatalf("ValidEmail(%q)=%v; want %v", in, got, want)
		}
	}
}

func TestParseStripsByteOrderMark(t *testing.T) {
	in := "\ufeffa@gmail.com:p1\r\nb@yahoo.com:p2\n"
	recs := Parse(in)
	if len(recs) != 2 || recs[0].Email != "a@gmail.com" {
		t.Fatalf("Parse=%+v; want a@gmail.com first", recs)
	}
	streamed, st, err := ParseReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseReader err: %v", err)
	}
	if len(streamed) != 2 || streamed[0].Email != "a@gmail.com" || streamed[0].Password != "p1" {
		t.Fatalf("ParseReader=%+v; want a@gmail.com/p1 first", streamed)
	}
	if st.Dropped != 0 {
		t.Fatalf("stats=%+v; want nothing dropped", st)
	}
}

func TestParseReaderLongLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	in := "a@gmail.com:p1\nb@yahoo.com:" + long + "\n" + long + "\nc@gmail.com:p3"
	recs, st, err := ParseReader(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseReader err: %v", err)
	}
	again := Parse(in)
	if len(recs) != 3 || len(again) != 3 {
		t.Fatalf("ParseReader=%d records, Parse=%d; want 3 each", len(recs), len(again))
	}
	for i := range recs {
		if recs[i] != again[i] {
			t.Fatalf("ParseReader and Parse disagree at %d", i)
		}
	}
	if recs[1].Password != long {
		t.Fatalf("long password truncated to %d bytes", len(recs[1].Password))
	}
	if st.Lines != 4 || st.Dropped != 1 {
		t.Fatalf("stats=%+v; want 4 lines, 1 dropped", st)
	}
}
