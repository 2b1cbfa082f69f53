package sheetx

import (
	"testing"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSheet(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	s, err := NewSheet("Lineups")
	require.NoError(t, err)
	require.NoError(t, s.Header(rows[0]...))
	for _, r := range rows[1:] {
		require.NoError(t, s.Append(r...))
	}
	data, err := s.Bytes()
	require.NoError(t, err)
	return data
}

func TestReadRowsFromWrittenWorkbook(t *testing.T) {
	data := buildSheet(t,
		[]any{"Candidate Name", "Phone"},
		[]any{"Asha", "98450 12345"},
		[]any{"Ravi", "9845012346"},
	)

	rows, err := ReadRows(data, "upload.xlsx", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Candidate Name", "Phone"}, rows[0])
	assert.Equal(t, "Asha", rows[1][0])
	assert.Equal(t, "9845012346", rows[2][1])

	_, err = ReadRows(data, "upload.xlsx", 1)
	assert.True(t, errx.IsCode(err, CodeTooManyRows))

	_, err = ReadRows([]byte("not a workbook"), "upload.xlsx", 10)
	assert.True(t, errx.IsCode(err, CodeUnreadable))
}

func TestHeaderIndex(t *testing.T) {
	header := []string{" Candidate  Name", "MOBILE", "call_status", "Phone"}
	idx := HeaderIndex(header, map[string][]string{
		"name":   {"name", "candidate name"},
		"phone":  {"phone", "mobile"},
		"status": {"call status", "status"},
		"email":  {"email"},
	})

	assert.Equal(t, 0, idx["name"])
	// first alias wins
	assert.Equal(t, 3, idx["phone"])
	assert.Equal(t, 2, idx["status"])
	_, ok := idx["email"]
	assert.False(t, ok)
}

func TestCellAndBlank(t *testing.T) {
	row := []string{" a ", ""}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
	assert.True(t, IsBlank([]string{" ", ""}))
	assert.False(t, IsBlank(row))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-05", "05/03/2024", "5/3/2024", "05-03-2024", "5 Mar 2024", "45356"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := ParseDate("someday")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

type fakeLegacySheet [][]string

func (f fakeLegacySheet) lastRow() int { return len(f) - 1 }

func (f fakeLegacySheet) row(i int) []string { return f[i] }

func TestLegacyRowsRejectsOversizedSheet(t *testing.T) {
	sheet := fakeLegacySheet{{"Name", "Phone"}, {"Asha", "9840011111"}, {"Ravi", "9840022222"}, {"Meena", "9840033333"}}

	_, err := legacyRows(sheet, 2)
	require.Error(t, err)
	assert.True(t, errx.IsCode(err, CodeTooManyRows))

	rows, err := legacyRows(sheet, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestLegacyRowsKeepsGapsAndTrimsTail(t *testing.T) {
	sheet := fakeLegacySheet{{"Name", "Phone"}, nil, {"", "9840011111"}, {"", ""}, nil}

	rows, err := legacyRows(sheet, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Nil(t, rows[1])
	assert.Equal(t, "9840011111", Cell(rows[2], 1))
}

func TestReadRowsRejectsBrokenLegacyFile(t *testing.T) {
	_, err := ReadRows([]byte("not a workbook"), "lineups.xls", 10)
	assert.True(t, errx.IsCode(err, CodeUnreadable))
}
