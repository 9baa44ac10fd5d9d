// Package charts renders optimization results as PNG images.
package charts

import (
	"fmt"
	"math"

	charts "github.com/vicanso/go-charts/v2"

	"markowitz/internal/engine"
	apperrors "markowitz/internal/errors"
)

// RenderFrontier draws the efficient frontier as a line over the
// volatility/return plane, with the tangency portfolio marked as a second
// series. Returns PNG bytes.
func RenderFrontier(result *engine.OptimizationResult) ([]byte, error) {
	if len(result.Frontier) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "frontier is empty, nothing to render")
	}

	n := len(result.Frontier)
	x := make([]string, n)
	returns := make([]float64, n)
	tangencySeries := make([]float64, n)

	yMin, yMax := math.Inf(1), math.Inf(-1)
	tangencyIdx := 0
	for i, p := range result.Frontier {
		x[i] = fmt.Sprintf("%.2f%%", p.Volatility*100)
		returns[i] = p.Return * 100
		tangencySeries[i] = charts.GetNullValue()
		yMin = math.Min(yMin, returns[i])
		yMax = math.Max(yMax, returns[i])
		if math.Abs(p.Volatility-result.Tangency.Volatility) < math.Abs(result.Frontier[tangencyIdx].Volatility-result.Tangency.Volatility) {
			tangencyIdx = i
		}
	}
	tangencySeries[tangencyIdx] = result.Tangency.Return * 100

	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(yMax)*0.05, 0.01)
	}
	yMin -= pad
	yMax += pad

	painter, err := charts.LineRender([][]float64{returns, tangencySeries},
		charts.TitleTextOptionFunc("Efficient Frontier", "return % over volatility %"),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Frontier", "Tangency"}}),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: x, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("rendering frontier chart: %w", err))
	}
	return painter.Bytes()
}
