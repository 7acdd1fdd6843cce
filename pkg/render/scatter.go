package render

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"mrivolviz/pkg/classify"
)

// intensityRamp is a hot-style color ramp for the normalized intensity
// dimension of the scatter plot.
var intensityRamp = []string{
	"#0d0887", "#5b02a3", "#9a179b", "#cb4679",
	"#eb7852", "#fbb32f", "#f0f921",
}

// ScatterHTML renders the labeled point clouds as an interactive 3D
// scatter page. Tissue is drawn faint so the denser band stays
// translucent around the region class; an empty region class is simply
// omitted rather than drawn as an empty series.
func ScatterHTML(w io.Writer, res *classify.Result, title string) error {
	sc := charts.NewScatter3D()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "dark",
			Width:     "1000px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("tissue=%d points, region=%d points", len(res.Tissue), len(res.Region)),
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "3",
			InRange:    &opts.VisualMapInRange{Color: intensityRamp},
		}),
	)

	sc.AddSeries("tissue", chart3DData(res.Tissue),
		charts.WithItemStyleOpts(opts.ItemStyle{Opacity: opts.Float(0.15)}))
	if len(res.Region) > 0 {
		sc.AddSeries("region", chart3DData(res.Region),
			charts.WithItemStyleOpts(opts.ItemStyle{Opacity: opts.Float(1.0)}))
	}

	return sc.Render(w)
}

// SaveScatterHTML writes the 3D scatter page to an HTML file.
func SaveScatterHTML(res *classify.Result, title, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return ScatterHTML(file, res, title)
}

func chart3DData(ps classify.PointSet) []opts.Chart3DData {
	data := make([]opts.Chart3DData, len(ps))
	for i, p := range ps {
		data[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z, p.Intensity}}
	}
	return data
}
