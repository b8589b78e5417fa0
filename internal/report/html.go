package report

import (
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
)

// WriteHTML renders a standalone HTML page with diagnostic counts per code
// and per severity.
func WriteHTML(w io.Writer, diags []diag.Diagnostic) error {
	page := components.NewPage()
	page.PageTitle = "bslcheck report"

	page.AddCharts(buildCodeChart(diags), buildSeverityChart(diags))

	return page.Render(w)
}

func buildCodeChart(diags []diag.Diagnostic) *charts.Bar {
	counts := map[string]int{}
	for _, d := range diags {
		counts[d.Code]++
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	data := make([]opts.BarData, len(codes))
	for i, code := range codes {
		data[i] = opts.BarData{Value: counts[code]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Findings by code"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(codes)
	bar.AddSeries("findings", data)

	return bar
}

func buildSeverityChart(diags []diag.Diagnostic) *charts.Pie {
	counts := map[diag.Severity]int{}
	for _, d := range diags {
		counts[d.Severity]++
	}

	items := make([]opts.PieData, 0, len(counts))
	for _, sev := range []diag.Severity{diag.SeverityError, diag.SeverityWarning, diag.SeverityInfo, diag.SeverityHint} {
		if counts[sev] > 0 {
			items = append(items, opts.PieData{Name: string(sev), Value: counts[sev]})
		}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Findings by severity"}),
	)
	pie.AddSeries("severity", items)

	return pie
}
