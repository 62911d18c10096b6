package deckfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const presentationPartName = "ppt/presentation.xml"

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxReader handles reading PPTX decks. A deck is a zip package whose slide
// content lives in ppt/slides/slideN.xml parts.
type PptxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// Relationship represents a relationship entry in the PPTX package.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships of one part.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// presentationPart carries the slide id list of ppt/presentation.xml. Only
// the relationship ids are needed; they give the authoritative slide order.
type presentationPart struct {
	XMLName  xml.Name  `xml:"presentation"`
	SlideIDs []slideID `xml:"sldIdLst>sldId"`
}

type slideID struct {
	RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

// NewPptxReader creates a new PPTX reader from zip bytes.
func NewPptxReader(r io.ReaderAt, size int64) (*PptxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip file: %w", err)
	}

	pr := &PptxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		pr.Parts[file.Name] = file
	}

	if _, ok := pr.Parts[presentationPartName]; !ok {
		return nil, fmt.Errorf("not a valid PPTX file: %w", ErrMissingPresentation)
	}

	return pr, nil
}

// PptxReaderFromFile creates a PptxReader from a file path.
func PptxReaderFromFile(path string) (*PptxReader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	reader := bytes.NewReader(content)
	return NewPptxReader(reader, int64(len(content)))
}

// GetPresentationXML retrieves the content of ppt/presentation.xml.
func (pr *PptxReader) GetPresentationXML() (string, error) {
	content, err := pr.GetPart(presentationPartName)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// GetPart retrieves the content of a specific part.
func (pr *PptxReader) GetPart(partName string) ([]byte, error) {
	file, ok := pr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}

	return content, nil
}

// GetRelationships retrieves the relationships of a given part. A missing
// relationships part is not an error; it yields an empty list.
func (pr *PptxReader) GetRelationships(partName string) ([]Relationship, error) {
	// Convert part name to its relationships file name,
	// e.g. "ppt/presentation.xml" -> "ppt/_rels/presentation.xml.rels".
	dir := ""
	base := partName
	if idx := strings.LastIndex(partName, "/"); idx != -1 {
		dir = partName[:idx]
		base = partName[idx+1:]
	}

	relPath := fmt.Sprintf("%s/_rels/%s.rels", dir, base)
	if dir == "" {
		relPath = fmt.Sprintf("_rels/%s.rels", base)
	}

	file, ok := pr.Parts[relPath]
	if !ok {
		return []Relationship{}, nil
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open relationships file: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationships file: %w", err)
	}

	var rels Relationships
	if err := xml.Unmarshal(content, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}

	return rels.Relationship, nil
}

// ListParts returns a list of all part names in the deck.
func (pr *PptxReader) ListParts() []string {
	parts := make([]string, 0, len(pr.Parts))
	for name := range pr.Parts {
		parts = append(parts, name)
	}
	return parts
}

// SlideParts returns the slide part names in deck order. Order comes from
// the presentation's sldIdLst resolved through the relationship table; when
// the list is absent the parts fall back to their numeric order.
func (pr *PptxReader) SlideParts() ([]string, error) {
	content, err := pr.GetPart(presentationPartName)
	if err != nil {
		return nil, err
	}

	var pres presentationPart
	if err := xml.Unmarshal(content, &pres); err != nil {
		return nil, fmt.Errorf("failed to parse presentation.xml: %w", err)
	}

	if len(pres.SlideIDs) == 0 {
		return pr.numberedSlideParts(), nil
	}

	rels, err := pr.GetRelationships(presentationPartName)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Relationship, len(rels))
	for _, rel := range rels {
		byID[rel.ID] = rel
	}

	parts := make([]string, 0, len(pres.SlideIDs))
	for _, slide := range pres.SlideIDs {
		rel, ok := byID[slide.RelID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", slide.RelID)
		}
		parts = append(parts, resolvePartName("ppt", rel.Target))
	}
	return parts, nil
}

// numberedSlideParts lists ppt/slides/slideN.xml parts sorted by N.
func (pr *PptxReader) numberedSlideParts() []string {
	type numberedPart struct {
		name  string
		index int
	}

	var numbered []numberedPart
	for name := range pr.Parts {
		matches := slidePartPattern.FindStringSubmatch(name)
		if len(matches) != 2 {
			continue
		}
		index, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		numbered = append(numbered, numberedPart{name: name, index: index})
	}

	sort.Slice(numbered, func(i, j int) bool {
		return numbered[i].index < numbered[j].index
	})

	parts := make([]string, len(numbered))
	for i, p := range numbered {
		parts[i] = p.name
	}
	return parts
}

// resolvePartName resolves a relationship target against the directory of
// the part that declared it. Targets starting with "/" are package-absolute.
func resolvePartName(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(baseDir, target)
}
