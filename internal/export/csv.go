// Package export writes the flattened results view as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"llmbench/internal/store"
)

// Header matches the ResultsSummary column names.
var Header = []string{
	"result_id", "session_id", "session_description", "model_filename", "quantization",
	"file_size_mb", "prompt_id", "prompt_category", "prompt_text", "output_text",
	"execution_time_seconds", "tokens_generated", "tokens_per_second", "error_message",
}

// WriteCSV writes a header line followed by one record per row. NULL columns
// are written as empty fields.
func WriteCSV(w io.Writer, rows []store.SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ResultID, 10),
			strconv.FormatInt(r.SessionID, 10),
			r.SessionDescription,
			r.ModelFilename,
			r.Quantization,
			formatFloat(r.FileSizeMB),
			optInt(r.PromptID),
			r.PromptCategory,
			r.PromptText,
			r.OutputText,
			optFloat(r.ExecSeconds),
			optInt(r.TokensGenerated),
			optFloat(r.TokensPerSecond),
			r.Error,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ResultID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func optInt(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}
