package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totaltiming/totaltiming/pkg/summary"
)

func TestCsvRendererImpl_RenderTable(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  string
	}{
		{
			name:  "empty table still has header and sum",
			table: Table{Entity: "Project"},
			want:  "Project,Hours,Duration\nSUM,0.00,00:00:00\n",
		},
		{
			name: "names are quoted when needed",
			table: Table{
				Entity: "Project",
				Rows: []summary.EntitySummary{
					{EntityId: 1, Name: "Bridge, north", TotalHours: 1.3333333},
					{EntityId: 2, Name: "Tunnel", TotalHours: 100.25},
				},
				Total: 101.5833333,
			},
			want: "Project,Hours,Duration\n" +
				"\"Bridge, north\",1.33,01:20:00\n" +
				"Tunnel,100.25,100:15:00\n" +
				"SUM,101.58,101:35:00\n",
		},
		{
			name: "non-finite totals render as zero",
			table: Table{
				Entity: "User",
				Rows:   []summary.EntitySummary{{EntityId: 1, Name: "Kari", TotalHours: math.NaN()}},
				Total:  math.Inf(1),
			},
			want: "User,Hours,Duration\nKari,0.00,00:00:00\nSUM,0.00,00:00:00\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCsvRenderer().RenderTable(tt.table)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHoursToDuration(t *testing.T) {
	assert.Equal(t, "07:30:00", hoursToDuration(7.5))
	assert.Equal(t, "00:00:36", hoursToDuration(0.01))
	assert.Equal(t, "00:00:00", hoursToDuration(math.NaN()))
}
