package form

import (
	"bufio"
	"io"
	"strings"
	"time"
)

const csvSubmittedAt = "Submitted At"

// WriteCSV writes one header row ("Submitted At" then each field label) and
// one row per response. Every cell is quoted and embedded quotes are doubled.
// Checkbox answers are joined with ", " and file answers export their URL.
func WriteCSV(w io.Writer, f Form, responses []Response) error {
	bw := bufio.NewWriter(w)

	header := make([]string, 0, len(f.Fields)+1)
	header = append(header, csvSubmittedAt)
	for _, fd := range f.Fields {
		header = append(header, fd.Label)
	}
	if err := writeRow(bw, header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range responses {
		row[0] = ""
		if !r.SubmittedAt.IsZero() {
			row[0] = r.SubmittedAt.UTC().Format(time.RFC3339)
		}
		for i, fd := range f.Fields {
			row[i+1] = CellText(r.Values[fd.ID])
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CellText renders a single answer as plain text.
func CellText(v Value) string {
	switch val := v.(type) {
	case TextValue:
		return string(val)
	case ChoiceSet:
		return strings.Join(val, ", ")
	case FileRef:
		if val.FileURL != "" {
			return val.FileURL
		}
		return val.FileName
	}
	return ""
}

func writeRow(w *bufio.Writer, cells []string) error {
	for i, c := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quoteCell(c)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
