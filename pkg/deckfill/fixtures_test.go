package deckfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// buildDeckBytes assembles a minimal PPTX deck from raw slide XML parts,
// wired together with a presentation part, its relationships, and content
// types.
func buildDeckBytes(slideXML ...string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	ct, _ := w.Create("[Content_Types].xml")
	io.WriteString(ct, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
</Types>`)

	rels, _ := w.Create("_rels/.rels")
	io.WriteString(rels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`)

	var slideIDs bytes.Buffer
	var slideRels bytes.Buffer
	for i := range slideXML {
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
		fmt.Fprintf(&slideRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+2, i+1)
	}

	pres, _ := w.Create(presentationPartName)
	fmt.Fprintf(pres, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="%s" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="%s"><p:sldIdLst>%s</p:sldIdLst></p:presentation>`,
		drawingMLNamespace, presentationMLNamespace, slideIDs.String())

	presRels, _ := w.Create("ppt/_rels/presentation.xml.rels")
	fmt.Fprintf(presRels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">%s</Relationships>`, slideRels.String())

	for i, content := range slideXML {
		slide, _ := w.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		io.WriteString(slide, content)
	}

	w.Close()
	return buf.Bytes()
}

// wrapSlideXML wraps paragraph XML in a one-shape slide part.
func wrapSlideXML(paragraphXML string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="%s" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="%s"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/><p:sp><p:nvSpPr><p:cNvPr id="2" name="Content"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`,
		drawingMLNamespace, presentationMLNamespace, paragraphXML)
}

// createSimpleDeckBytes builds a single-slide deck whose one paragraph holds
// the given run texts, each in its own run with distinct styling so style
// preservation is observable.
func createSimpleDeckBytes(runTexts ...string) []byte {
	var runs bytes.Buffer
	for i, text := range runTexts {
		fmt.Fprintf(&runs, `<a:r><a:rPr lang="en-US" sz="%d00" dirty="0"/><a:t>`, 12+i)
		xml.EscapeText(&runs, []byte(text))
		runs.WriteString(`</a:t></a:r>`)
	}
	return buildDeckBytes(wrapSlideXML("<a:p>" + runs.String() + "</a:p>"))
}
