package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sunrise-clock/internal/status"
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"orNone": func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Sunrise Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.error { color: red; }
.connected { color: green; }
.disconnected { color: red; }
.swatch { display: inline-block; width: 1em; height: 1em; border: 1px solid #888; vertical-align: middle; margin-right: 6px; }
</style>
</head>
<body>
<h1>Sunrise Clock</h1>

<h2>Time</h2>
<table>
<tr><th>Now</th><td id="datetime" class="{{if .Datetime}}on{{else}}unknown{{end}}">{{if .Datetime}}{{.Datetime}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Phase</th><td id="phase">{{.PhaseText}}</td></tr>
{{if .RTCError}}<tr><th>RTC</th><td class="error">{{.RTCError}}</td></tr>{{end}}
</table>

<h2>Radio</h2>
<table>
<tr><th>Last sync</th><td>{{if .LastRadioSync}}{{.LastRadioSync}}{{else}}never{{end}}</td></tr>
<tr><th>Quarters since sync</th><td>{{if .QuartersKnown}}{{.Quarters}}{{else}}unknown{{end}}</td></tr>
<tr><th>Last symbol</th><td>{{orNone .Radio.LastSymbol.String}}</td></tr>
<tr><th>Frame</th><td id="frame">{{.Frame}}</td></tr>
<tr><th>Samples</th><td>{{.Radio.Samples}}</td></tr>
{{if .Radio.LastError}}<tr><th>Last error</th><td class="error">{{.Radio.LastError}} ({{.Radio.LastErrorTime.UTC.Format "15:04:05Z"}})</td></tr>{{end}}
</table>

<h2>Alarm</h2>
<table>
<tr><th>Dawn</th><td>{{with .Settings.DawnDuration}}{{.}} min{{else}}disabled{{end}}</td></tr>
<tr><th>Week sunrise</th><td>{{with .Settings.WeekSunrise}}{{.}}{{else}}disabled{{end}}</td></tr>
<tr><th>Weekend sunrise</th><td>{{with .Settings.WeekendSunrise}}{{.}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>LED</th><td id="led">{{if .LEDColor}}<span class="swatch" style="background: {{.LEDColor}}"></span>{{.LEDColor}}{{if .Outputs.LEDForced}} (forced){{end}}{{else}}<span class="off">OFF</span>{{end}}</td></tr>
<tr><th>Buzzer</th><td class="{{if .Outputs.Buzzer}}on{{else}}off{{end}}">{{onOff .Outputs.Buzzer}}</td></tr>
<tr><th>Display</th><td>{{.Display}}</td></tr>
</table>

<h2>Inputs</h2>
<table>
<tr><th>Button</th><td class="{{if .Button}}on{{else}}off{{end}}">{{onOff .Button}}</td></tr>
<tr><th>Luminosity</th><td class="{{if .Luminosity}}on{{else}}off{{end}}">{{onOff .Luminosity}}</td></tr>
<tr><th>Proximity</th><td class="{{if .Proximity}}on{{else}}off{{end}}">{{onOff .Proximity}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{orNone .Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Dawn</th><td>{{.Counts.Dawn}}</td></tr>
<tr><th>Sunrise</th><td>{{.Counts.Sunrise}}</td></tr>
<tr><th>Default</th><td>{{.Counts.Default}}</td></tr>
<tr><th>Ack</th><td>{{.Counts.Ack}}</td></tr>
<tr><th>Radio sync</th><td>{{.Counts.RadioSync}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>RTC</th><td>{{.Config.RTC}}{{if .Config.Simulated}} (simulated radio){{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has methods the template cannot call with arguments, so the
	// derived values are computed here.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		PhaseText string
		Frame     string
		LEDColor  string
		Display   string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		PhaseText: status.BuildPhase(snap.Phase).Text,
		Frame:     status.FrameString(snap.Radio.Frame),
		Display:   string(snap.Outputs.Display),
	}
	if snap.Outputs.LED != nil {
		data.LEDColor = snap.Outputs.LED.String()
	}
	if data.Display == "" {
		data.Display = "OFF"
	}
	indexTmpl.Execute(w, data)
}
