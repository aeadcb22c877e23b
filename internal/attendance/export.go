package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"name", "department", "status", "notes", "rejection_reason", "validated_at", "validated_by"}

// WriteCSV streams validated records as a CSV document for recap exports.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		validatedAt := ""
		if rec.Validated() {
			validatedAt = rec.ValidatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			rec.UserName,
			rec.DepartmentName,
			string(rec.Status),
			rec.Notes,
			rec.RejectionReason,
			validatedAt,
			rec.ValidatorName,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvFilename keeps export names deterministic per event.
func csvFilename(eventID int64) string {
	return "attendance-" + strconv.FormatInt(eventID, 10) + ".csv"
}
