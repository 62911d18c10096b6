package deckfill

import (
	"bytes"
	"fmt"
	"reflect"
	"testing"
)

func TestScanSlide(t *testing.T) {
	tests := []struct {
		name           string
		paragraphXML   string
		wantParagraphs [][]string
	}{
		{
			name:           "single run",
			paragraphXML:   `<a:p><a:r><a:rPr lang="en-US"/><a:t>Hello</a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{"Hello"}},
		},
		{
			name: "placeholder split across two styled runs",
			paragraphXML: `<a:p>` +
				`<a:r><a:rPr lang="en-US" sz="1200"/><a:t>Sales: {{sa</a:t></a:r>` +
				`<a:r><a:rPr lang="en-US" sz="1300" b="1"/><a:t>les}} unit</a:t></a:r>` +
				`</a:p>`,
			wantParagraphs: [][]string{{"Sales: {{sa", "les}} unit"}},
		},
		{
			name: "two paragraphs in order",
			paragraphXML: `<a:p><a:r><a:t>first</a:t></a:r></a:p>` +
				`<a:p><a:r><a:t>second</a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{"first"}, {"second"}},
		},
		{
			name:           "entities decode into run text",
			paragraphXML:   `<a:p><a:r><a:t>A &amp; B &lt;ok&gt;</a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{"A & B <ok>"}},
		},
		{
			name:           "self-closing text element is an empty run",
			paragraphXML:   `<a:p><a:r><a:rPr lang="en-US"/><a:t/></a:r></a:p>`,
			wantParagraphs: [][]string{{""}},
		},
		{
			name:           "empty text element is an empty run",
			paragraphXML:   `<a:p><a:r><a:t></a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{""}},
		},
		{
			name:           "paragraph without runs is kept",
			paragraphXML:   `<a:p><a:pPr algn="ctr"/></a:p><a:p><a:r><a:t>x</a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{}, {"x"}},
		},
		{
			name: "field text is not a run",
			paragraphXML: `<a:p>` +
				`<a:fld id="{DEAD-BEEF}" type="slidenum"><a:rPr lang="en-US"/><a:t>3</a:t></a:fld>` +
				`<a:r><a:t>real</a:t></a:r>` +
				`</a:p>`,
			wantParagraphs: [][]string{{"real"}},
		},
		{
			name:           "line break does not join run texts",
			paragraphXML:   `<a:p><a:r><a:t>one</a:t></a:r><a:br/><a:r><a:t>two</a:t></a:r></a:p>`,
			wantParagraphs: [][]string{{"one", "two"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slide, err := ScanSlide("ppt/slides/slide1.xml", []byte(wrapSlideXML(tt.paragraphXML)))
			if err != nil {
				t.Fatalf("ScanSlide failed: %v", err)
			}

			got := make([][]string, len(slide.Paragraphs))
			for i, paragraph := range slide.Paragraphs {
				got[i] = paragraph.Texts()
			}
			want := make([][]string, len(tt.wantParagraphs))
			for i, texts := range tt.wantParagraphs {
				want[i] = make([]string, len(texts))
				copy(want[i], texts)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("paragraph texts = %v, want %v", got, want)
			}
		})
	}
}

func TestScanSlideSkipsTableTextBodies(t *testing.T) {
	// Table cells use drawingml a:txBody, not the presentationml p:txBody of
	// shapes, and their text must not be rendered.
	slideXML := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="%s" xmlns:p="%s"><p:cSld><p:spTree>`+
		`<p:sp><p:txBody><a:bodyPr/><a:p><a:r><a:t>{{shape}}</a:t></a:r></a:p></p:txBody></p:sp>`+
		`<p:graphicFrame><a:graphic><a:graphicData><a:tbl><a:tr><a:tc>`+
		`<a:txBody><a:bodyPr/><a:p><a:r><a:t>{{cell}}</a:t></a:r></a:p></a:txBody>`+
		`</a:tc></a:tr></a:tbl></a:graphicData></a:graphic></p:graphicFrame>`+
		`</p:spTree></p:cSld></p:sld>`, drawingMLNamespace, presentationMLNamespace)

	slide, err := ScanSlide("ppt/slides/slide1.xml", []byte(slideXML))
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	if len(slide.Paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(slide.Paragraphs))
	}
	if got := slide.Paragraphs[0].Texts(); !reflect.DeepEqual(got, []string{"{{shape}}"}) {
		t.Errorf("paragraph texts = %v, want the shape text only", got)
	}
}

func TestSpliceUnmodifiedSlideIsByteIdentical(t *testing.T) {
	data := []byte(wrapSlideXML(`<a:p><a:r><a:rPr sz="1200"/><a:t>Hello</a:t></a:r></a:p>`))
	slide, err := ScanSlide("ppt/slides/slide1.xml", data)
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	if got := slide.splice(); !bytes.Equal(got, data) {
		t.Error("unmodified slide must splice to its original bytes")
	}
}

func TestSpliceReplacesRunText(t *testing.T) {
	data := []byte(wrapSlideXML(`<a:p>` +
		`<a:r><a:rPr lang="en-US" sz="1200"/><a:t>Sales: {{sa</a:t></a:r>` +
		`<a:r><a:rPr lang="en-US" sz="1300" b="1"/><a:t>les}} unit</a:t></a:r>` +
		`</a:p>`))
	slide, err := ScanSlide("ppt/slides/slide1.xml", data)
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	runs := slide.Paragraphs[0].Runs
	runs[0].SetText("Sales: 98")
	runs[1].SetText("0.0 unit")

	spliced := slide.splice()
	if !bytes.Contains(spliced, []byte(`<a:t>Sales: 98</a:t>`)) {
		t.Errorf("spliced slide missing first run text: %s", spliced)
	}
	if !bytes.Contains(spliced, []byte(`<a:t>0.0 unit</a:t>`)) {
		t.Errorf("spliced slide missing second run text: %s", spliced)
	}

	// Run properties survive untouched.
	if !bytes.Contains(spliced, []byte(`<a:rPr lang="en-US" sz="1200"/>`)) ||
		!bytes.Contains(spliced, []byte(`<a:rPr lang="en-US" sz="1300" b="1"/>`)) {
		t.Errorf("run properties were altered: %s", spliced)
	}

	// The spliced part scans back to the new texts.
	rescanned, err := ScanSlide("ppt/slides/slide1.xml", spliced)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if got := rescanned.Paragraphs[0].Texts(); !reflect.DeepEqual(got, []string{"Sales: 98", "0.0 unit"}) {
		t.Errorf("rescanned texts = %v", got)
	}
}

func TestSpliceEscapesNewText(t *testing.T) {
	data := []byte(wrapSlideXML(`<a:p><a:r><a:t>{{v}}</a:t></a:r></a:p>`))
	slide, err := ScanSlide("ppt/slides/slide1.xml", data)
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	slide.Paragraphs[0].Runs[0].SetText(`a<b&c>"d"`)
	spliced := slide.splice()

	if !bytes.Contains(spliced, []byte(`a&lt;b&amp;c&gt;`)) {
		t.Errorf("special characters not escaped: %s", spliced)
	}

	rescanned, err := ScanSlide("ppt/slides/slide1.xml", spliced)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if got := rescanned.Paragraphs[0].Runs[0].Text(); got != `a<b&c>"d"` {
		t.Errorf("round-tripped text = %q", got)
	}
}

func TestSpliceRewritesSelfClosingText(t *testing.T) {
	// Reflow never fills an empty run (its slot has zero overlap), but the
	// run API allows it, so <a:t/> must grow into an open/close pair.
	data := []byte(wrapSlideXML(`<a:p><a:r><a:rPr sz="1100"/><a:t/></a:r><a:r><a:t>tail</a:t></a:r></a:p>`))
	slide, err := ScanSlide("ppt/slides/slide1.xml", data)
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	slide.Paragraphs[0].Runs[0].SetText("filled")
	spliced := slide.splice()

	if !bytes.Contains(spliced, []byte(`<a:t>filled</a:t>`)) {
		t.Errorf("self-closing element not rewritten: %s", spliced)
	}
	if bytes.Contains(spliced, []byte(`<a:t/>`)) {
		t.Errorf("self-closing element left behind: %s", spliced)
	}
	if !bytes.Contains(spliced, []byte(`<a:rPr sz="1100"/>`)) {
		t.Errorf("self-closing rewrite damaged run properties: %s", spliced)
	}

	rescanned, err := ScanSlide("ppt/slides/slide1.xml", spliced)
	if err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if got := rescanned.Paragraphs[0].Texts(); !reflect.DeepEqual(got, []string{"filled", "tail"}) {
		t.Errorf("rescanned texts = %v", got)
	}
}

func TestSlideClone(t *testing.T) {
	data := []byte(wrapSlideXML(`<a:p><a:r><a:t>{{name}}</a:t></a:r></a:p>`))
	slide, err := ScanSlide("ppt/slides/slide1.xml", data)
	if err != nil {
		t.Fatalf("ScanSlide failed: %v", err)
	}

	copied := slide.clone()
	copied.Paragraphs[0].Runs[0].SetText("Alice")

	if slide.Paragraphs[0].Runs[0].Text() != "{{name}}" {
		t.Error("mutating a clone leaked into the original")
	}
	if slide.modified() {
		t.Error("original slide must not report modified")
	}
	if !copied.modified() {
		t.Error("clone must report modified")
	}
}
