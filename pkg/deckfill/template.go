package deckfill

import (
	"bytes"
	"io"
	"sync"

	"go.uber.org/zap"
)

// template represents a parsed deck template (internal use)
type template struct {
	pptxReader *PptxReader
	slides     []*Slide
	source     []byte
	closed     bool
	mu         sync.RWMutex
}

// PreparedTemplate represents a scanned deck template ready for rendering.
// Use Prepare() or PrepareFile() to create an instance.
//
// A prepared template never mutates during Render, so one instance can serve
// any number of renders, concurrently if needed.
type PreparedTemplate struct {
	template *template
	logger   *zap.Logger
	closed   bool
	mu       sync.Mutex
}

// prepare is the internal implementation of template preparation. It reads
// the whole deck, locates the slide parts in deck order, and scans each one
// so malformed slides fail here rather than mid-render.
func prepare(r io.Reader, logger *zap.Logger) (*PreparedTemplate, error) {
	buf := new(bytes.Buffer)
	size, err := buf.ReadFrom(r)
	if err != nil {
		return nil, NewDocumentError("read", "", err)
	}

	source := buf.Bytes()
	reader := bytes.NewReader(source)

	pptxReader, err := NewPptxReader(reader, size)
	if err != nil {
		return nil, NewDocumentError("parse", "PPTX", err)
	}

	partNames, err := pptxReader.SlideParts()
	if err != nil {
		return nil, NewDocumentError("scan", presentationPartName, err)
	}

	slides := make([]*Slide, 0, len(partNames))
	for _, partName := range partNames {
		data, err := pptxReader.GetPart(partName)
		if err != nil {
			return nil, NewDocumentError("extract", partName, err)
		}

		slide, err := ScanSlide(partName, data)
		if err != nil {
			return nil, NewDocumentError("parse", partName, err)
		}
		slides = append(slides, slide)
	}

	return &PreparedTemplate{
		template: &template{
			pptxReader: pptxReader,
			slides:     slides,
			source:     source,
		},
		logger: ensureLogger(logger),
	}, nil
}

// Render executes the template with the given context and returns a reader
// containing the rendered PPTX deck.
//
// Placeholders spanning several runs of a paragraph are resolved against the
// paragraph's full text and the rendered text is spread back across the
// original runs, so per-run styling survives. Missing context keys render as
// empty strings.
func (pt *PreparedTemplate) Render(context Context) (io.Reader, error) {
	if pt == nil || pt.template == nil {
		return nil, ErrNilTemplate
	}

	pt.mu.Lock()
	closed := pt.closed
	pt.mu.Unlock()
	if closed {
		return nil, ErrNilTemplate
	}

	rendered := make(map[string][]byte)
	totalPlaceholders := 0

	for _, slide := range pt.template.slides {
		// Work on a copy so the prepared scan stays reusable.
		working := slide.clone()

		slidePlaceholders := 0
		for _, paragraph := range working.Paragraphs {
			if len(paragraph.Runs) == 0 {
				continue
			}
			occurrences := ReflowRuns(paragraph.Runs, context)
			slidePlaceholders += len(occurrences)
		}

		if working.modified() {
			rendered[working.PartName] = working.splice()
		}
		totalPlaceholders += slidePlaceholders

		pt.logger.Debug("rendered slide",
			zap.String("part", working.PartName),
			zap.Int("paragraphs", len(working.Paragraphs)),
			zap.Int("placeholders", slidePlaceholders),
		)
	}

	buf := new(bytes.Buffer)
	if err := writeDeck(buf, pt.template.source, rendered); err != nil {
		return nil, WithContext(err, "rendering deck", map[string]interface{}{
			"slides": len(pt.template.slides),
		})
	}

	pt.logger.Debug("rendered deck",
		zap.Int("slides", len(pt.template.slides)),
		zap.Int("placeholders", totalPlaceholders),
	)
	return bytes.NewReader(buf.Bytes()), nil
}

// Slides returns the scanned slides in deck order. The returned slides are
// the prepared originals; callers must not mutate their runs.
func (pt *PreparedTemplate) Slides() []*Slide {
	if pt == nil || pt.template == nil {
		return nil
	}
	return pt.template.slides
}

// Source returns the raw bytes of the template deck.
func (pt *PreparedTemplate) Source() []byte {
	if pt == nil || pt.template == nil {
		return nil
	}
	return pt.template.source
}

// Close releases any resources held by the prepared template.
// After calling Close, the template should not be used.
func (pt *PreparedTemplate) Close() error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.closed {
		return nil
	}
	pt.closed = true

	if pt.template != nil {
		return pt.template.Close()
	}
	return nil
}

// Close releases resources held by the template. Slides and source are left
// in place so a render already in flight on another goroutine finishes.
func (t *template) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}
