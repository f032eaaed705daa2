package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/totaltiming/totaltiming/pkg/hours"
	"github.com/totaltiming/totaltiming/pkg/summary"
)

type Renderer interface {
	RenderTable(table Table) (string, error)
	RenderUserProject(rows []summary.UserProjectSummary) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderTable writes one row per entity and a closing SUM row.
func (c *CsvRendererImpl) RenderTable(table Table) (string, error) {
	data := make([][]string, 0, len(table.Rows)+2)
	data = append(data, []string{table.Entity, "Hours", "Duration"})
	for _, row := range table.Rows {
		data = append(data, []string{row.Name, hoursToString(row.TotalHours), hoursToDuration(row.TotalHours)})
	}
	data = append(data, []string{"SUM", hoursToString(table.Total), hoursToDuration(table.Total)})
	return writeCsv(data)
}

func (c *CsvRendererImpl) RenderUserProject(rows []summary.UserProjectSummary) (string, error) {
	data := make([][]string, 0, len(rows)+2)
	data = append(data, []string{"User", "Project", "Hours", "Duration"})
	total := 0.0
	for _, row := range rows {
		data = append(data, []string{row.UserName, row.ProjectName, hoursToString(row.TotalHours), hoursToDuration(row.TotalHours)})
		total += hours.FiniteOrZero(row.TotalHours)
	}
	data = append(data, []string{"SUM", "", hoursToString(total), hoursToDuration(total)})
	return writeCsv(data)
}

func writeCsv(data [][]string) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func hoursToString(v float64) string {
	return strconv.FormatFloat(hours.RoundHours(v), 'f', 2, 64)
}

// hoursToDuration formats hours as HH:MM:SS, rounded to the second.
func hoursToDuration(v float64) string {
	duration := time.Duration(hours.FiniteOrZero(v) * float64(time.Hour)).Round(time.Second)
	h := strconv.Itoa(int(duration.Hours()))
	if len(h) == 1 {
		h = "0" + h
	}
	minutes := strconv.Itoa(int(duration.Minutes()) % 60)
	if len(minutes) == 1 {
		minutes = "0" + minutes
	}
	seconds := strconv.Itoa(int(duration.Seconds()) % 60)
	if len(seconds) == 1 {
		seconds = "0" + seconds
	}
	return h + ":" + minutes + ":" + seconds
}
