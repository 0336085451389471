// Package export writes normalized action results to files.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/booksearch/internal/domain"
	dombook "github.com/kailas-cloud/booksearch/internal/domain/book"
	"github.com/kailas-cloud/booksearch/internal/metrics"
)

// Format is an export file type.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// AuthorSeparator joins the authors list in both formats, and other list values in CSV cells.
const AuthorSeparator = "|"

const authorsKey = "authors"

// Exporter writes records under a base directory.
type Exporter struct {
	dir string
}

// New creates an exporter rooted at dir. An empty dir means the working directory.
func New(dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir}
}

// Export writes records to {dir}/{name}.{format} and returns the path.
// Formats other than json and csv return domain.ErrUnsupportedFormat and write nothing.
func (e *Exporter) Export(records []json.RawMessage, name, format string) (string, error) {
	f := Format(strings.ToLower(format))
	if f != FormatJSON && f != FormatCSV {
		metrics.ExportsTotal.WithLabelValues("unsupported", "skipped").Inc()
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid export name %q", name)
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = encodeJSON(records)
	case FormatCSV:
		data, err = encodeCSV(records)
	}
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(string(f), "error").Inc()
		return "", fmt.Errorf("encode %s: %w", f, err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(e.dir, name+"."+string(f))
	if err := e.writeAtomic(path, data); err != nil {
		metrics.ExportsTotal.WithLabelValues(string(f), "error").Inc()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	metrics.ExportsTotal.WithLabelValues(string(f), "ok").Inc()
	return path, nil
}

// writeAtomic stages data in a temp file next to path and renames it into place.
// Readers see either the previous export or the new one, never a partial write.
func (e *Exporter) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(e.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil { //nolint:gosec // exports are meant to be readable
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// encodeJSON renders records as an array with sorted keys and four-space indent.
// The authors list is flattened to one delimited string.
func encodeJSON(records []json.RawMessage) ([]byte, error) {
	values := make([]any, 0, len(records))
	for i, r := range records {
		v, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if m, ok := v.(map[string]any); ok {
			flattenAuthors(m)
		}
		values = append(values, v)
	}
	data, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// encodeCSV renders one header row in book column order and one row per record.
func encodeCSV(records []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(dombook.Columns); err != nil {
		return nil, err
	}

	row := make([]string, len(dombook.Columns))
	for i, r := range records {
		v, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		m, _ := v.(map[string]any)
		flattenAuthors(m)
		for c, col := range dombook.Columns {
			row[c] = cell(m[col])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flattenAuthors(m map[string]any) {
	if list, ok := m[authorsKey].([]any); ok {
		m[authorsKey] = cell(list)
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = cell(item)
		}
		return strings.Join(parts, AuthorSeparator)
	default:
		data, _ := json.Marshal(x)
		return string(data)
	}
}

func decode(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
