package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Case ID", "Student"},
		Rows: []map[string]string{
			{"Case ID": "S-1", "Student": "Asha Rao"},
			{"Case ID": "S-2", "Student": "=HYPERLINK(\"x\")"},
		},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Case ID,Student", lines[0])
	assert.Equal(t, "S-1,Asha Rao", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "S-2,\"'=HYPERLINK"))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	rows := make([]map[string]string, 0, 80)
	for i := 0; i < 80; i++ {
		rows = append(rows, map[string]string{"Case": "S-1", "Notes": strings.Repeat("long note ", 10)})
	}
	out, err := NewPDFExporter().Render(Dataset{Headers: []string{"Case", "Notes"}, Rows: rows}, "Inquiries")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestCSVReaderMapsAliases(t *testing.T) {
	input := "\ufeffStudent Name,PARENT_NAME,Mobile No,Enquiry ID,Unmapped\n" +
		"Asha Rao,Ravi Rao,9876543210,S-12,x\n" +
		",,,,\n" +
		"Kiran,Meena,9123456780,,y\n"
	reader := NewCSVReader(map[string]string{
		"student name": "student_name",
		"parent name":  "parent_name",
		"mobile no":    "phone",
		"enquiry id":   "legacy_case_id",
	})

	columns, records, err := reader.Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"student_name", "parent_name", "phone", "legacy_case_id", "unmapped"}, columns)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "Asha Rao", records[0].Get("student_name"))
	assert.Equal(t, "S-12", records[0].Get("legacy_case_id"))
	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "", records[1].Get("legacy_case_id"))
}

func TestCSVReaderRejectsEmptyInput(t *testing.T) {
	_, _, err := NewCSVReader(nil).Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "studentname", FoldHeader(" Student_Name "))
	assert.Equal(t, "studentname", FoldHeader("STUDENT-NAME"))
}
