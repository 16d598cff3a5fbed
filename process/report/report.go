// Package report renders extraction results as an aligned table or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gradescan/pkg/sheet"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Summary counts how many sheets produced text for each field.
type Summary struct {
	Sheets    int `json:"sheets"`
	WithName  int `json:"with_name"`
	WithID    int `json:"with_id"`
	WithGrade int `json:"with_grade"`
}

// Summarize counts the non-empty fields of rows.
func Summarize(rows []sheet.Extraction) Summary {
	s := Summary{Sheets: len(rows)}
	for _, r := range rows {
		if r.Name != "" {
			s.WithName++
		}
		if r.ID != "" {
			s.WithID++
		}
		if r.Grade != "" {
			s.WithGrade++
		}
	}
	return s
}

// Write renders rows in the given format.
func Write(w io.Writer, rows []sheet.Extraction, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary Summary            `json:"summary"`
			Rows    []sheet.Extraction `json:"rows"`
		}{Summarize(rows), rows})
	case FormatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tFILE\tNAME\tID\tGRADE")
		for _, r := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Index, r.Filename, dash(r.Name), dash(r.ID), dash(r.Grade))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		s := Summarize(rows)
		_, err := fmt.Fprintf(w, "sheets=%d name=%d id=%d grade=%d\n", s.Sheets, s.WithName, s.WithID, s.WithGrade)
		return err
	}
	return fmt.Errorf("unknown report format %q", format)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
