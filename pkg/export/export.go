// Package export renders tabular data as CSV or PDF documents.
package export

import (
	"fmt"
	"strings"
)

// Format identifies an output encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	// Notes are printed under the title of documents that have one.
	Notes []string
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}

// Render encodes data in the given format. title is ignored by CSV.
func Render(format Format, data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("%s export requires at least one header", format)
	}
	switch format {
	case FormatCSV:
		return renderCSV(data)
	case FormatPDF:
		return renderPDF(data, title)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}
