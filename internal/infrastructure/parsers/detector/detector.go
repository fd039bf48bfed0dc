// Package detector implements auto-detection for coverage report formats.
//
// The detector examines file content and extension to determine the
// appropriate parser for a coverage report.
package detector

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covergate/internal/application"
	"github.com/felixgeelhaar/covergate/internal/pathutil"
)

// sniffSize is how much of a report is read for content sniffing.
const sniffSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Detector detects coverage report formats from file content.
type Detector struct{}

// New creates a new format detector.
func New() *Detector {
	return &Detector{}
}

// DetectFormat examines file content to determine the coverage format.
// It uses content sniffing first, then falls back to extension-based detection.
// FormatAuto means the format could not be determined.
func (d *Detector) DetectFormat(path string) (application.Format, error) {
	content, err := readHead(path, sniffSize)
	if err != nil {
		return application.FormatAuto, err
	}

	if format := d.DetectContent(content); format != application.FormatAuto {
		return format, nil
	}
	return d.detectFromExtension(path), nil
}

// DetectContent classifies the head of a report.
func (d *Detector) DetectContent(content []byte) application.Format {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(content, utf8BOM))

	switch {
	case bytes.HasPrefix(trimmed, []byte("mode:")):
		return application.FormatGo
	case bytes.HasPrefix(trimmed, []byte("{")):
		return application.FormatIstanbul
	case isXML(trimmed) && containsCoberturaMarkers(trimmed):
		return application.FormatCobertura
	case isLCOV(trimmed):
		return application.FormatLCOV
	}
	return application.FormatAuto
}

// detectFromExtension uses file extension as a hint.
func (d *Detector) detectFromExtension(path string) application.Format {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.ToLower(filepath.Base(path))

	switch {
	case ext == ".out" || base == "coverage.out" || base == "cover.out":
		return application.FormatGo
	case ext == ".info" || base == "lcov.info" || base == "coverage.info":
		return application.FormatLCOV
	case ext == ".json":
		return application.FormatIstanbul
	case ext == ".xml":
		return application.FormatCobertura
	}
	return application.FormatAuto
}

// isXML checks if content appears to be XML.
func isXML(content []byte) bool {
	return bytes.HasPrefix(content, []byte("<?xml")) || bytes.HasPrefix(content, []byte("<"))
}

// containsCoberturaMarkers checks for Cobertura-specific XML markers.
func containsCoberturaMarkers(content []byte) bool {
	return bytes.Contains(content, []byte("<coverage")) ||
		bytes.Contains(content, []byte("cobertura"))
}

// isLCOV checks if content appears to be LCOV format.
func isLCOV(content []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	var hasSF, hasData bool

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SF:"):
			hasSF = true
		case strings.HasPrefix(line, "DA:"), strings.HasPrefix(line, "LF:"),
			strings.HasPrefix(line, "FN:"), strings.HasPrefix(line, "BRDA:"):
			hasData = true
		}
		if hasSF && hasData {
			return true
		}
	}
	return false
}

// readHead reads the first n bytes of a file.
func readHead(path string, n int) ([]byte, error) {
	file, err := pathutil.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, n)
	nRead, err := io.ReadFull(file, buf)
	// Short and empty files are fine, just return what we got
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:nRead], nil
}
