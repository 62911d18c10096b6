package deckfill

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

const (
	presentationMLNamespace = "http://schemas.openxmlformats.org/presentationml/2006/main"
	drawingMLNamespace      = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// Run is one styled text fragment of a paragraph. Its text is mutable; the
// styling that surrounds it in the slide XML is never touched, because a run
// only remembers the byte span of its <a:t> content and rendering splices
// new text into that span.
type Run struct {
	text     string
	original string

	// Byte offsets into the owning slide's XML.
	tagStart     int
	contentStart int
	contentEnd   int
	selfClosing  bool
}

// Text returns the run's current text.
func (r *Run) Text() string {
	return r.text
}

// SetText replaces the run's text. The change is applied to the slide XML
// when the slide is spliced.
func (r *Run) SetText(text string) {
	r.text = text
}

func (r *Run) modified() bool {
	return r.text != r.original
}

// Paragraph is an ordered sequence of runs inside one text body.
type Paragraph struct {
	Runs []*Run
}

// Texts returns the current text of each run, in run order.
func (p *Paragraph) Texts() []string {
	texts := make([]string, len(p.Runs))
	for i, run := range p.Runs {
		texts[i] = run.Text()
	}
	return texts
}

// Slide is one scanned slide part: its original bytes plus the paragraphs of
// every shape text body, in document order.
type Slide struct {
	PartName   string
	Paragraphs []*Paragraph

	data []byte
}

// ScanSlide parses one slide part and records, for every shape text body
// paragraph, its runs together with the byte spans of their <a:t> content.
// Only presentationml text bodies count as shape text; the drawingml text
// bodies of table cells are not shape text frames and are left alone.
func ScanSlide(partName string, data []byte) (*Slide, error) {
	slide := &Slide{
		PartName: partName,
		data:     data,
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		inTextBody bool
		inRun      bool
		inText     bool

		paragraph *Paragraph
		run       *Run
		textBuf   bytes.Buffer
	)

	tokenStart := decoder.InputOffset()
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", partName, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "txBody" && t.Name.Space == presentationMLNamespace:
				inTextBody = true
			case inTextBody && paragraph == nil && t.Name.Local == "p" && t.Name.Space == drawingMLNamespace:
				paragraph = &Paragraph{}
			case paragraph != nil && !inRun && t.Name.Local == "r" && t.Name.Space == drawingMLNamespace:
				inRun = true
				run = nil
			case inRun && run == nil && t.Name.Local == "t" && t.Name.Space == drawingMLNamespace:
				contentStart := int(decoder.InputOffset())
				run = &Run{
					tagStart:     int(tokenStart),
					contentStart: contentStart,
					contentEnd:   contentStart,
					selfClosing:  contentStart >= 2 && data[contentStart-2] == '/',
				}
				inText = true
				textBuf.Reset()
			}

		case xml.EndElement:
			switch {
			case inText && t.Name.Local == "t" && t.Name.Space == drawingMLNamespace:
				if !run.selfClosing {
					run.contentEnd = int(tokenStart)
				}
				run.text = textBuf.String()
				run.original = run.text
				inText = false
			case inRun && t.Name.Local == "r" && t.Name.Space == drawingMLNamespace:
				if run != nil {
					paragraph.Runs = append(paragraph.Runs, run)
					run = nil
				}
				inRun = false
			case paragraph != nil && !inRun && t.Name.Local == "p" && t.Name.Space == drawingMLNamespace:
				slide.Paragraphs = append(slide.Paragraphs, paragraph)
				paragraph = nil
			case t.Name.Local == "txBody" && t.Name.Space == presentationMLNamespace:
				inTextBody = false
			}

		case xml.CharData:
			if inText {
				textBuf.Write(t)
			}
		}

		tokenStart = decoder.InputOffset()
	}

	return slide, nil
}

// modified reports whether any run text differs from the scanned original.
func (s *Slide) modified() bool {
	for _, paragraph := range s.Paragraphs {
		for _, run := range paragraph.Runs {
			if run.modified() {
				return true
			}
		}
	}
	return false
}

// splice rebuilds the slide XML with every modified run's new text in place
// of its original <a:t> content. All other bytes are copied verbatim, so
// untouched runs, styling, and anything else in the part stay byte-identical.
// An unmodified slide returns its original bytes.
func (s *Slide) splice() []byte {
	if !s.modified() {
		return s.data
	}

	var buf bytes.Buffer
	buf.Grow(len(s.data) + 256)

	cursor := 0
	for _, paragraph := range s.Paragraphs {
		for _, run := range paragraph.Runs {
			if !run.modified() {
				continue
			}
			if run.selfClosing {
				// Rewrite <a:t .../> as <a:t ...>text</a:t>.
				buf.Write(s.data[cursor:run.tagStart])
				openTag := s.data[run.tagStart:run.contentStart]
				buf.Write(openTag[:len(openTag)-2])
				buf.WriteByte('>')
				xml.EscapeText(&buf, []byte(run.text))
				buf.WriteString("</")
				buf.Write(tagName(openTag))
				buf.WriteByte('>')
				cursor = run.contentStart
			} else {
				buf.Write(s.data[cursor:run.contentStart])
				xml.EscapeText(&buf, []byte(run.text))
				cursor = run.contentEnd
			}
		}
	}
	buf.Write(s.data[cursor:])

	return buf.Bytes()
}

// tagName extracts the qualified element name from a raw start tag such as
// "<a:t ...>".
func tagName(tag []byte) []byte {
	name := tag[1:]
	for i, c := range name {
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '/' || c == '>' {
			return name[:i]
		}
	}
	return name
}

// clone returns a slide whose runs can be mutated without affecting the
// scanned original, so one prepared template can serve many renders.
func (s *Slide) clone() *Slide {
	copied := &Slide{
		PartName:   s.PartName,
		Paragraphs: make([]*Paragraph, len(s.Paragraphs)),
		data:       s.data,
	}
	for i, paragraph := range s.Paragraphs {
		runs := make([]*Run, len(paragraph.Runs))
		for j, run := range paragraph.Runs {
			copiedRun := *run
			runs[j] = &copiedRun
		}
		copied.Paragraphs[i] = &Paragraph{Runs: runs}
	}
	return copied
}
