package export

import (
	"bytes"
	"html/template"
	"io"

	"github.com/ja7ad/windpower/pkg/analysis"
	"github.com/ja7ad/windpower/pkg/operation"
	"github.com/ja7ad/windpower/pkg/types"
)

type stateShare struct {
	State   string
	Percent float64
}

// WriteHTML renders a standalone report of one run.
func WriteHTML(w io.Writer, res analysis.Result) error {
	type view struct {
		analysis.Result
		Energy string
		Mean   string
		Annual string
		Rated  string
		States []stateShare
	}

	v := view{
		Result: res,
		Energy: types.Energy(res.Summary.TotalEnergyKWh).Humanized(),
		Mean:   types.Power(res.Summary.MeanPowerKW).Humanized(),
		Annual: types.Energy(res.Summary.AnnualEnergyKWh).Humanized(),
		Rated:  types.Power(res.Turbine.RatedPower).Humanized(),
	}
	for _, st := range operation.States() {
		v.States = append(v.States, stateShare{State: st.String(), Percent: 100 * res.Summary.TimeInState[st]})
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var tpl = template.Must(template.New("rep").Funcs(template.FuncMap{
	"mul100": func(x float64) float64 { return 100 * x },
}).Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Wind Power Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
.badge{display:inline-block;background:#eef;border:1px solid #ccd;padding:2px 6px;border-radius:6px;margin-right:6px;}
</style>

<h1>Wind Power Report</h1>

<p class="small">
Run: {{.RunID}} &nbsp;|&nbsp;
Turbine: {{.Turbine.Name}} ({{.Rated}}) &nbsp;|&nbsp;
Hub height: {{printf "%.1f" .HubHeight}} m &nbsp;|&nbsp;
Model: {{.Model}} / {{.Power}}
</p>

<h2>Summary</h2>
<ul>
<li>Samples: {{.Summary.Samples}}</li>
<li>Energy: {{.Energy}}</li>
<li>Mean power: {{.Mean}}</li>
<li>Capacity factor: {{printf "%.2f" (mul100 .Summary.CapacityFactor)}} %</li>
<li>Annual energy: {{.Annual}}</li>
{{with .Weibull}}<li>Weibull: k={{printf "%.3f" .Shape}} c={{printf "%.3f" .Scale}} m/s</li>{{end}}
{{with .Analytic}}<li>Analytic annual energy: {{printf "%.1f" .AnnualEnergyKWh}} kWh</li>{{end}}
</ul>

<h2>Time in state</h2>
<ul>
{{range .States}}
  <li><span class="badge">{{.State}}</span> {{printf "%.2f" .Percent}} %</li>
{{end}}
</ul>

{{if .Notes}}
<h2>Notes</h2>
<ul>
{{range .Notes}}<li>{{.}}</li>{{end}}
</ul>
{{end}}

<h2>Records</h2>
<table>
<thead>
<tr><th>time</th><th>v (m/s)</th><th>ω (rad/s)</th><th>P (kW)</th><th>state</th></tr>
</thead>
<tbody>
{{range .Records}}
<tr>
<td style="text-align:left">{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
<td>{{printf "%.3f" .Speed}}</td>
<td>{{printf "%.3f" .Omega}}</td>
<td>{{printf "%.3f" .Power}}</td>
<td>{{.State}}</td>
</tr>
{{end}}
</tbody>
</table>
</html>`))
