package output

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt    string
	Report         Report
	ProfilerIDs    []string
	FPSHistoryJSON string
	FrameTimeJSON  string
	BudgetsPassed  int
	BudgetsFailed  int
}

// GenerateHTMLReport generates a standalone HTML report with embedded sparklines.
func GenerateHTMLReport(w io.Writer, rep Report) error {
	ids := make([]string, 0, len(rep.Profiler))
	for id := range rep.Profiler {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := rep.Profiler[ids[i]], rep.Profiler[ids[j]]
		if a.Renders != b.Renders {
			return a.Renders > b.Renders
		}
		return ids[i] < ids[j]
	})

	fpsJSON, err := json.Marshal(rep.Snapshot.FPSHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal fps history: %w", err)
	}
	frameJSON, err := json.Marshal(rep.Snapshot.FrameTimeHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal frame-time history: %w", err)
	}

	passed, failed := 0, 0
	for _, b := range rep.Budgets {
		if b.Pass {
			passed++
		} else {
			failed++
		}
	}

	data := HTMLReportData{
		GeneratedAt:    time.Now().Format(time.RFC3339),
		Report:         rep,
		ProfilerIDs:    ids,
		FPSHistoryJSON: string(fpsJSON),
		FrameTimeJSON:  string(frameJSON),
		BudgetsPassed:  passed,
		BudgetsFailed:  failed,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.Round(time.Millisecond).String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatMs": func(f float64) string {
			return fmt.Sprintf("%.1f ms", f)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FramePulse Report{{if .Report.StoryID}} — {{.Report.StoryID}}{{end}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: #f5f6fa;
            color: #2d3436;
            padding: 24px;
        }
        h1 { font-size: 22px; margin-bottom: 4px; }
        .meta { color: #636e72; font-size: 13px; margin-bottom: 24px; }
        .cards { display: flex; flex-wrap: wrap; gap: 12px; margin-bottom: 24px; }
        .card {
            background: #fff;
            border-radius: 8px;
            padding: 14px 18px;
            min-width: 140px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.08);
        }
        .card .label { font-size: 12px; color: #636e72; text-transform: uppercase; }
        .card .value { font-size: 22px; font-weight: 600; margin-top: 4px; }
        h2 { font-size: 16px; margin: 24px 0 8px; }
        table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 8px; overflow: hidden; }
        th, td { text-align: left; padding: 8px 12px; font-size: 13px; border-bottom: 1px solid #eee; }
        th { background: #f1f2f6; text-transform: uppercase; font-size: 11px; color: #636e72; }
        .pass { color: #00b894; font-weight: 600; }
        .fail { color: #d63031; font-weight: 600; }
        canvas { background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.08); }
        .charts { display: flex; gap: 16px; flex-wrap: wrap; }
        .chart-block { flex: 1; min-width: 320px; }
        .chart-block .label { font-size: 12px; color: #636e72; margin-bottom: 6px; }
    </style>
</head>
<body>
    <h1>FramePulse Report{{if .Report.StoryID}}: {{.Report.StoryID}}{{end}}</h1>
    <div class="meta">Generated {{.GeneratedAt}} · observed {{formatDuration .Report.Duration}}</div>

    <div class="cards">
        <div class="card"><div class="label">FPS</div><div class="value">{{formatFloat .Report.Snapshot.FPS}}</div></div>
        <div class="card"><div class="label">Frame Time</div><div class="value">{{formatMs .Report.Snapshot.FrameTimeMs}}</div></div>
        <div class="card"><div class="label">P95 Frame</div><div class="value">{{formatMs .Report.Snapshot.P95FrameTimeMs}}</div></div>
        <div class="card"><div class="label">Input Latency</div><div class="value">{{formatMs .Report.Snapshot.InputLatencyMs}}</div></div>
        <div class="card"><div class="label">Long Tasks</div><div class="value">{{.Report.Snapshot.LongTasks}}</div></div>
        <div class="card"><div class="label">Blocking Time</div><div class="value">{{formatMs .Report.Snapshot.TotalBlockingTimeMs}}</div></div>
        <div class="card"><div class="label">Layout Shift</div><div class="value">{{formatFloat .Report.Snapshot.LayoutShiftScore}}</div></div>
        <div class="card"><div class="label">Forced Reflows</div><div class="value">{{.Report.Snapshot.ForcedReflows}}</div></div>
    </div>

    <div class="charts">
        <div class="chart-block">
            <div class="label">FPS over time</div>
            <canvas id="fps-chart" width="480" height="120"></canvas>
        </div>
        <div class="chart-block">
            <div class="label">Frame time (ms) over time</div>
            <canvas id="frame-chart" width="480" height="120"></canvas>
        </div>
    </div>

    {{if .ProfilerIDs}}
    <h2>Component Renders</h2>
    <table>
        <tr><th>Component</th><th>Renders</th><th>Last</th><th>Mean</th><th>Total</th></tr>
        {{$profiler := .Report.Profiler}}
        {{range .ProfilerIDs}}
        {{$m := index $profiler .}}
        <tr>
            <td>{{.}}</td>
            <td>{{$m.Renders}}</td>
            <td>{{formatMs $m.LastDurationMs}}</td>
            <td>{{formatMs $m.MeanDurationMs}}</td>
            <td>{{formatMs $m.TotalDurationMs}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    {{if .Report.Budgets}}
    <h2>Budgets ({{.BudgetsPassed}} passed, {{.BudgetsFailed}} failed)</h2>
    <table>
        <tr><th>Budget</th><th>Actual</th><th>Result</th></tr>
        {{range .Report.Budgets}}
        <tr>
            <td>{{.Budget}}</td>
            <td>{{formatFloat .Actual}}</td>
            <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <script>
        function drawSeries(id, series, color) {
            var canvas = document.getElementById(id);
            if (!canvas || !series || series.length < 2) return;
            var ctx = canvas.getContext('2d');
            var w = canvas.width, h = canvas.height, pad = 8;
            var max = Math.max.apply(null, series), min = Math.min.apply(null, series);
            if (max === min) { max = min + 1; }
            ctx.strokeStyle = color;
            ctx.lineWidth = 2;
            ctx.beginPath();
            series.forEach(function(v, i) {
                var x = pad + (w - 2 * pad) * i / (series.length - 1);
                var y = h - pad - (h - 2 * pad) * (v - min) / (max - min);
                if (i === 0) ctx.moveTo(x, y); else ctx.lineTo(x, y);
            });
            ctx.stroke();
        }
        const fpsJSON = {{.FPSHistoryJSON}};
        const frameJSON = {{.FrameTimeJSON}};
        drawSeries('fps-chart', JSON.parse(fpsJSON), '#0984e3');
        drawSeries('frame-chart', JSON.parse(frameJSON), '#d63031');
    </script>
</body>
</html>
`
