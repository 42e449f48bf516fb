package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/infrastructure/printing"
)

const sheetName = "Report"

func encodeCSV(t *table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeExcel(t *table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, float64(max(len(header)+4, 14))); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, excelValue(v)); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// excelValue keeps numbers numeric so spreadsheet formulas work on them
func excelValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format("2006-01-02 15:04:05")
	case decimal.Decimal:
		return val.Round(2).InexactFloat64()
	default:
		return v
	}
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell":  formatCell,
	"label": metricLabel,
	"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
	"num":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 10px; color: #222; }
h1 { font-size: 18px; color: #1F4E79; margin-bottom: 2px; }
.period { color: #666; margin-bottom: 12px; }
.metrics { margin-bottom: 12px; }
.metrics span { display: inline-block; margin-right: 18px; }
table { border-collapse: collapse; width: 100%; }
th { background: #1F4E79; color: #fff; padding: 4px; text-align: left; }
td { border-bottom: 1px solid #ddd; padding: 3px 4px; }
tr:nth-child(even) td { background: #f4f7fb; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="period">{{date .From}} to {{date .To}} &middot; {{len .Rows}} records</div>
<div class="metrics">{{range .Metrics}}<span><strong>{{label .Name}}:</strong> {{num .Value}}</span>{{end}}</div>
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{cell .}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>`))

type metricView struct {
	Name  string
	Value float64
}

type reportView struct {
	Title    string
	From, To time.Time
	Headers  []string
	Rows     [][]any
	Metrics  []metricView
}

var titleCaser = cases.Title(language.English)

// metricLabel turns "avg_utilization" into "Avg Utilization"
func metricLabel(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

func renderHTML(t *table, from, to time.Time) (string, error) {
	view := reportView{Title: t.Title, From: from, To: to, Headers: t.Headers, Rows: t.Rows}
	for name, value := range t.Metrics {
		view.Metrics = append(view.Metrics, metricView{Name: name, Value: value})
	}
	sort.Slice(view.Metrics, func(i, j int) bool { return view.Metrics[i].Name < view.Metrics[j].Name })

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render report html: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) encodePDF(ctx context.Context, t *table, from, to time.Time) ([]byte, error) {
	html, err := renderHTML(t, from, to)
	if err != nil {
		return nil, err
	}
	res, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:      html,
		Title:     t.Title,
		Landscape: len(t.Headers) > 8,
		Timeout:   s.renderTimeout,
	})
	if err != nil {
		s.logger.Error("pdf render failed", zap.String("title", t.Title), zap.Error(err))
		return nil, shared.NewDomainError("RENDER_FAILED", "Failed to render PDF: "+err.Error())
	}
	return res.PDFData, nil
}
