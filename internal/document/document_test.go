package document

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
)

func TestNormalize_SortsCopy(t *testing.T) {
	in := []internal.Page{{Page: 3, Text: "c"}, {Page: 1, Text: "a"}, {Page: 2, Text: "b"}}
	out, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, p := range out {
		if p.Page != i+1 {
			t.Errorf("out[%d].Page = %d", i, p.Page)
		}
	}
	if in[0].Page != 3 {
		t.Error("input was reordered in place")
	}
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		pages []internal.Page
	}{
		{"empty", nil},
		{"zero", []internal.Page{{Page: 0}}},
		{"negative", []internal.Page{{Page: 1}, {Page: -2}}},
		{"duplicate", []internal.Page{{Page: 2}, {Page: 1}, {Page: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.pages)
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestSegment(t *testing.T) {
	text := "1. SPECIFICATIONS\n\nThe spindle runs at 12000 rpm when the door is closed. Coolant must be on.\n\n- Max load 20 kg\n\n\n\nOverview"
	got := Segment(text)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4: %+v", len(got), got)
	}

	want := []struct {
		heading, list bool
	}{
		{true, false},
		{false, false},
		{true, true},
		{true, false},
	}
	for i, w := range want {
		md := got[i].Metadata
		if md.Index != i {
			t.Errorf("section %d index = %d", i, md.Index)
		}
		if md.IsHeading != w.heading || md.IsList != w.list {
			t.Errorf("section %d (%q) heading=%v list=%v, want %v %v", i, got[i].Text, md.IsHeading, md.IsList, w.heading, w.list)
		}
	}
	if got[0].Metadata.Length != len("1. SPECIFICATIONS") {
		t.Errorf("length = %d", got[0].Metadata.Length)
	}
}

func TestSegment_LengthCountsRunes(t *testing.T) {
	got := Segment("主軸の回転数")
	if len(got) != 1 || got[0].Metadata.Length != 6 {
		t.Errorf("got %+v", got)
	}
}

func TestSegment_LongParagraphIsNotHeading(t *testing.T) {
	long := "This paragraph is deliberately written to be longer than eighty characters so it is body text"
	got := Segment(long)
	if len(got) != 1 || got[0].Metadata.IsHeading {
		t.Errorf("got %+v", got)
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment("  \n\n \n\n"); len(got) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestWithSections_KeepsExisting(t *testing.T) {
	existing := []internal.Section{{Text: "given"}}
	pages := []internal.Page{
		{Page: 1, Text: "A\n\nB", Sections: existing},
		{Page: 2, Text: "C\n\nD"},
	}
	out := WithSections(pages)
	if len(out[0].Sections) != 1 || out[0].Sections[0].Text != "given" {
		t.Errorf("page 1 sections = %+v", out[0].Sections)
	}
	if len(out[1].Sections) != 2 {
		t.Errorf("page 2 sections = %+v", out[1].Sections)
	}
	if pages[1].Sections != nil {
		t.Error("input page was modified")
	}
}

func TestWithSections_FixesGlyphs(t *testing.T) {
	out := WithSections([]internal.Page{{Page: 1, Text: "(cid:127) Spindle\n\n・O・n・l・i・n・e・"}})
	if out[0].Text != "・ Spindle\n\nOnline" {
		t.Fatalf("text = %q", out[0].Text)
	}
	if len(out[0].Sections) != 2 || !out[0].Sections[0].Metadata.IsList {
		t.Errorf("sections = %+v", out[0].Sections)
	}
}

func TestInspect_Invalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not a pdf at all")} {
		_, err := Inspect(data)
		if !apperrors.IsKind(err, apperrors.KindValidation) {
			t.Errorf("Inspect(%q) err = %v, want validation error", data, err)
		}
	}
}

// minimalPDF builds an unencrypted PDF 1.7 file with n empty pages.
func minimalPDF(n int) []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}
	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [ %s] /Count %d >>", kids, n))
	for i := 0; i < n; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestInspect_ValidPDF(t *testing.T) {
	info, err := Inspect(minimalPDF(2))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Pages != 2 {
		t.Errorf("Pages = %d, want 2", info.Pages)
	}
	if info.Version != "1.7" {
		t.Errorf("Version = %q, want 1.7", info.Version)
	}
	if info.Encrypted {
		t.Error("Encrypted = true, want false")
	}
}
