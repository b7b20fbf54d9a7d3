package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/touch-port/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"when": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Touch Port</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.ok { color: green; font-weight: bold; }
.idle { color: orange; }
.failed { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Touch Port</h1>

<h2>Ports</h2>
<table>
<tr><th>ID</th><th>Line</th><th>Poll</th><th>Source</th><th>State</th><th>Started</th><th>Ended</th><th>Last event</th></tr>
{{range .Ports}}<tr>
<td>{{.ID}}</td>
<td>{{if .Configured}}{{if .Chip}}{{.Chip}}/{{end}}{{.LineID}}{{else}}-{{end}}</td>
<td>{{if .Configured}}{{.PollMs}}ms{{else}}-{{end}}</td>
<td>{{if .Simulate}}simulated{{else}}hardware{{end}}</td>
<td class="{{if .Failed}}failed{{else if .Configured}}ok{{else}}idle{{end}}"{{if .Error}} title="{{.Error}}"{{end}}>{{if .Failed}}failed{{else if .Configured}}listening{{else}}idle{{end}}</td>
<td>{{.Started}}</td>
<td>{{.Ended}}</td>
<td>{{when .LastEventAt}}</td>
</tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Backlog</th><td>{{.MQTTBacklog}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic</th><td>{{.Config.Topic}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{when .StartTime}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/healthz">health</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
