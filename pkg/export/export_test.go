package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func agendaDataset() Dataset {
	return Dataset{
		Title:   "Agenda 2024-11-11",
		Headers: []string{"date", "start", "end", "subject"},
		Rows: [][]string{
			{"2024-11-11", "08:00", "09:30", "Algebra"},
			{"2024-11-11", "10:00", "11:30", "History, modern"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(agendaDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,start,end,subject\n2024-11-11,08:00,09:30,Algebra\n2024-11-11,10:00,11:30,\"History, modern\"\n", string(out))
}

func TestExportersRejectRaggedRows(t *testing.T) {
	data := agendaDataset()
	data.Rows = append(data.Rows, []string{"only-one"})

	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(data)
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(agendaDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(agendaDataset())
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	rows, err := file.GetRows("Agenda 2024-11-11")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "start", "end", "subject"}, rows[0])
	assert.Equal(t, "History, modern", rows[2][3])
}

func TestSheetNameStripsInvalidCharacters(t *testing.T) {
	assert.Equal(t, "Agenda 20241111-20241117", sheetName("Agenda 2024/11/11-2024/11/17"))
	assert.Len(t, []rune(sheetName("a very long agenda title that exceeds the limit")), 31)
}
