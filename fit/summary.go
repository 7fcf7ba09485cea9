package fit

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/surfacemetrology/surfacefit/utils"
)

// ParamString formats the shape parameters as "name=value" pairs.
func (r *Result) ParamString() string {
	names := r.Model.ParamNames()
	parts := make([]string, len(r.Params))
	for i, p := range r.Params {
		parts[i] = fmt.Sprintf("%s=%.6g", names[i], p)
	}
	return strings.Join(parts, ", ")
}

// AngleString formats the rotation angles in degrees.
func (r *Result) AngleString() string {
	return fmt.Sprintf("α:%.4f°, β:%.4f°, γ:%.4f°",
		utils.RadToDeg(r.Angles.Roll),
		utils.RadToDeg(r.Angles.Pitch),
		utils.RadToDeg(r.Angles.Yaw),
	)
}

// Summary renders a table with one row per result, in the given order.
func Summary(results []*Result) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Model", "Parameters", "Rotation", "RMSE", "Median |r|", "Max |r|", "Iterations", "Status"})
	for i, r := range results {
		t.AppendRow(table.Row{
			i + 1,
			r.Model.Name(),
			r.ParamString(),
			r.AngleString(),
			fmt.Sprintf("%.6g", r.RMSE),
			fmt.Sprintf("%.6g", r.MedianAbsResidual),
			fmt.Sprintf("%.6g", r.MaxAbsResidual),
			r.Iterations,
			r.Status,
		})
	}
	return t.Render()
}
