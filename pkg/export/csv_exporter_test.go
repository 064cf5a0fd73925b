package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"room_number", "count"},
		Rows: []map[string]string{
			{"room_number": "A-101", "count": "18"},
			{"room_number": "B-202"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, out[:3])
	assert.Equal(t, "room_number,count\nA-101,18\nB-202,\n", string(out[3:]))
}

func TestCSVExporterRejectsEmptyHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}
