package attendance

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	validatedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	records := []Record{
		{
			Attendance: Attendance{
				Status:        StatusPresent,
				ValidatedAt:   validatedAt,
				ValidatedByID: 1,
			},
			UserName:       "Sari",
			DepartmentName: "Media",
			ValidatorName:  "Ahmad",
		},
		{
			Attendance: Attendance{
				Status:          StatusRejected,
				Notes:           "izin, ada acara keluarga",
				RejectionReason: "bukti kurang",
				ValidatedAt:     validatedAt,
				ValidatedByID:   1,
			},
			UserName:      "Budi",
			ValidatorName: "Ahmad",
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, records))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "name,department,status,notes,rejection_reason,validated_at,validated_by", lines[0])
	require.Equal(t, "Sari,Media,present,,,2026-03-14T09:00:00Z,Ahmad", lines[1])
	// Fields containing commas are quoted.
	require.Contains(t, lines[2], `"izin, ada acara keluarga"`)
	require.Contains(t, lines[2], "bukti kurang")
}
