package recording

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/ssvep-go/internal/errors"
	"github.com/tphakala/ssvep-go/internal/logger"
)

// DefaultAnnotationExt is the extension of the marker file next to each record.
const DefaultAnnotationExt = "win"

// ReadAnnotations parses marker lines of the form "<sample><TAB or comma><text>".
// Blank lines and lines starting with '#' are ignored. Marker order is preserved.
func ReadAnnotations(r io.Reader) ([]Marker, error) {
	var markers []Marker

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sampleField, text, found := strings.Cut(line, "\t")
		if !found {
			sampleField, text, _ = strings.Cut(line, ",")
		}

		sample, err := strconv.Atoi(strings.TrimSpace(sampleField))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid sample index %q", lineNo, sampleField)
		}
		if sample < 0 {
			return nil, fmt.Errorf("line %d: negative sample index %d", lineNo, sample)
		}

		markers = append(markers, Marker{Sample: sample, Text: strings.TrimSpace(text)})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return markers, nil
}

// LoadAnnotations reads the marker file at path.
func LoadAnnotations(path string) ([]Marker, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path derived from a user-selected record
	if err != nil {
		return nil, errors.New(err).
			Component("recording").
			Category(errors.CategoryFileIO).
			Context("operation", "open_annotations").
			Context("record", BaseName(path)).
			Build()
	}
	defer func() { _ = f.Close() }()

	markers, err := ReadAnnotations(f)
	if err != nil {
		return nil, errors.New(err).
			Component("recording").
			Category(errors.CategoryFileParsing).
			Context("operation", "parse_annotations").
			Context("record", BaseName(path)).
			Build()
	}
	return markers, nil
}

// WriteAnnotations stores markers in the format ReadAnnotations accepts.
func WriteAnnotations(path string, markers []Marker) error {
	var b strings.Builder
	for _, m := range markers {
		if strings.ContainsAny(m.Text, "\n\r") {
			return newRecordingError(fmt.Errorf("marker text %q spans lines", m.Text), BaseName(path))
		}
		fmt.Fprintf(&b, "%d\t%s\n", m.Sample, m.Text)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return errors.FileError(err, path, int64(b.Len()))
	}
	return nil
}

// Load reads the record at base path p: signals from p.edf and markers from p.<annotationExt>.
// A trailing ".edf" on p is accepted.
func Load(p, annotationExt string) (*Recording, []Marker, error) {
	if annotationExt == "" {
		annotationExt = DefaultAnnotationExt
	}
	base := strings.TrimSuffix(p, ".edf")

	rec, err := LoadEDF(base + ".edf")
	if err != nil {
		return nil, nil, err
	}

	markers, err := LoadAnnotations(base + "." + annotationExt)
	if err != nil {
		return nil, nil, err
	}

	GetLogger().Debug("loaded record",
		logger.String("record", rec.Name()),
		logger.Int("markers", len(markers)))

	return rec, markers, nil
}

// Save writes rec and markers to base path p as p.edf and p.<annotationExt>.
func Save(p, annotationExt string, rec *Recording, markers []Marker) error {
	if annotationExt == "" {
		annotationExt = DefaultAnnotationExt
	}
	base := strings.TrimSuffix(p, ".edf")

	if err := WriteEDF(base+".edf", rec); err != nil {
		return err
	}
	return WriteAnnotations(base+"."+annotationExt, markers)
}

// BaseName returns the file name of p without directory and extension.
func BaseName(p string) string {
	name := filepath.Base(p)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
