package deckfill

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
)

// outputTimeFormat is the timestamp embedded in saved deck file names.
const outputTimeFormat = "20060102_150405"

// newDeckWriter returns a zip writer for w with deflate backed by
// klauspost/compress, which is considerably faster than the standard
// implementation on slide-sized parts.
func newDeckWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	return zw
}

// writeDeck writes a copy of the source deck to w, substituting the parts
// named in rendered and copying every other part verbatim. Part order and
// names are preserved so the output stays a byte-stable sibling of the
// source wherever nothing changed.
func writeDeck(w io.Writer, source []byte, rendered map[string][]byte) error {
	zipReader, err := zip.NewReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return fmt.Errorf("failed to read source deck: %w", err)
	}

	zw := newDeckWriter(w)
	for _, file := range zipReader.File {
		fw, err := zw.Create(file.Name)
		if err != nil {
			return fmt.Errorf("failed to create part %s: %w", file.Name, err)
		}

		if content, ok := rendered[file.Name]; ok {
			if _, err := fw.Write(content); err != nil {
				return fmt.Errorf("failed to write part %s: %w", file.Name, err)
			}
			continue
		}

		fr, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open part %s: %w", file.Name, err)
		}
		_, err = io.Copy(fw, fr)
		fr.Close()
		if err != nil {
			return fmt.Errorf("failed to copy part %s: %w", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize deck: %w", err)
	}
	return nil
}

// OutputFileName returns the file name a deck rendered at the given time is
// saved under: output_<YYYYMMDD_HHMMSS>.pptx.
func OutputFileName(now time.Time) string {
	return "output_" + now.Format(outputTimeFormat) + ".pptx"
}

// SaveRendered writes a rendered deck into outputDir under a timestamped
// name, creating the directory if needed, and returns the path written.
func SaveRendered(rendered io.Reader, outputDir string) (string, error) {
	return saveRenderedAt(rendered, outputDir, time.Now())
}

func saveRenderedAt(rendered io.Reader, outputDir string, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", NewDocumentError("save", outputDir, err)
	}

	outputPath := filepath.Join(outputDir, OutputFileName(now))
	out, err := os.Create(outputPath)
	if err != nil {
		return "", NewDocumentError("save", outputPath, err)
	}

	if _, err := io.Copy(out, rendered); err != nil {
		out.Close()
		return "", NewDocumentError("save", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return "", NewDocumentError("save", outputPath, err)
	}
	return outputPath, nil
}
