package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// FractionsReport renders the average class fractions of a mask directory
// as an HTML bar chart. names labels the classes; missing names fall back
// to the class index.
func FractionsReport(w io.Writer, title string, names []string, fractions []float64, masks int) error {
	x := make([]string, len(fractions))
	y := make([]opts.BarData, len(fractions))
	for k, f := range fractions {
		x[k] = fmt.Sprintf("class %d", k)
		if k < len(names) {
			x[k] = names[k]
		}
		y[k] = opts.BarData{Value: fmt.Sprintf("%.4f", f)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Class Fractions", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("averaged over %d masks", masks)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Fraction of pixels", Min: 0, Max: 1}),
	)
	bar.SetXAxis(x).
		AddSeries("fraction", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
