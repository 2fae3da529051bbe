package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
	"github.com/sweeney/sunrise-clock/internal/gpio"
	"github.com/sweeney/sunrise-clock/internal/metrics"
	"github.com/sweeney/sunrise-clock/internal/mqtt"
	"github.com/sweeney/sunrise-clock/internal/rtc"
	"github.com/sweeney/sunrise-clock/internal/status"
	"github.com/sweeney/sunrise-clock/internal/web"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if *info != (status.NetworkInfo{Status: "connected"}) {
		t.Errorf("got %+v", *info)
	}
}

func TestFlagValue(t *testing.T) {
	if got := flagValue("off"); got != "" {
		t.Errorf("off: got %q", got)
	}
	if got := flagValue(":9090"); got != ":9090" {
		t.Errorf("got %q", got)
	}
}

// --- loop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from the
// loop goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of levels.
func repeat(levels gpio.Levels, n int) []gpio.Levels {
	out := make([]gpio.Levels, n)
	for i := range out {
		out[i] = levels
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (gpio.Levels, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return gpio.Levels{}, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// scriptedDecoder returns queued steps, then empty ones.
type scriptedDecoder struct {
	steps []dcf77.Step
	errs  []error
}

func (d *scriptedDecoder) Run() (dcf77.Step, error) {
	if len(d.steps) == 0 {
		return dcf77.Step{}, nil
	}
	s, err := d.steps[0], d.errs[0]
	d.steps, d.errs = d.steps[1:], d.errs[1:]
	return s, err
}

func (d *scriptedDecoder) push(s dcf77.Step, err error) {
	d.steps = append(d.steps, s)
	d.errs = append(d.errs, err)
}

func (d *scriptedDecoder) Samples() int            { return 42 }
func (d *scriptedDecoder) Pending() []dcf77.Symbol { return []dcf77.Symbol{dcf77.Low, dcf77.High} }

var loopConfig = alarm.Config{Debounce: 100 * time.Millisecond, AutoAckMinutes: 5, LEDMax: 0x55}

func monday(h, m uint8) datetime.Datetime {
	return datetime.Datetime{
		Date: datetime.Date{Day: 4, Month: 12, Year: 23, Weekday: datetime.Monday},
		Time: datetime.Time{Hour: h, Minute: m, HasSecond: true},
	}
}

type harness struct {
	rtc     *rtc.Fake
	dec     *scriptedDecoder
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	metrics *metrics.Metrics
	l       *loop
}

// newHarness builds a loop on fakes. The clock starts on Monday at at, with
// a 20 minute dawn before a 06:00 sunrise.
func newHarness(at datetime.Datetime, reader gpio.Reader, step, heartbeat time.Duration) *harness {
	dawn := uint8(20)
	h := &harness{
		rtc:     rtc.NewFake(at),
		dec:     &scriptedDecoder{},
		pub:     mqtt.NewFakePublisher(),
		metrics: metrics.New(),
	}
	now := fakeClock(time.Date(2023, 12, 4, 5, 0, 0, 0, time.UTC), step)
	start := now()
	h.tracker = status.NewTracker(start, status.Config{})
	h.l = &loop{
		clk: clock.New(h.dec, h.rtc, clock.Settings{
			DawnDuration: &dawn,
			WeekSunrise:  &datetime.Time{Hour: 6},
		}),
		dec:        h.dec,
		ctl:        alarm.NewController(loopConfig, start),
		inputs:     reader,
		publisher:  h.pub,
		mqttStatus: h.pub,
		tracker:    h.tracker,
		metrics:    h.metrics,
		heartbeat:  heartbeat,
		now:        now,
	}
	return h
}

// run drives the loop with nTicks ticks, the given commands after the first
// tick, then the signal.
func (h *harness) run(t *testing.T, nTicks int, commands []web.Command, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	cmds := make(chan web.Command)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.l.run(tick, cmds, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
		if i == 0 {
			for _, c := range commands {
				cmds <- c
			}
		}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
}

func (h *harness) eventTypes() []alarm.EventType {
	var out []alarm.EventType
	for _, e := range h.pub.Events {
		out = append(out, e.Type)
	}
	return out
}

func equalTypes(got, want []alarm.EventType) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLoopNoEventsAtNight(t *testing.T) {
	h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 4)), 100*time.Millisecond, 0)
	h.run(t, 4, nil, syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 alarm events, got %v", h.eventTypes())
	}
	// Should have exactly one system event: SHUTDOWN
	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	if h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", h.pub.SystemEvents[0].Event)
	}
	if !h.tracker.Snapshot().Baselined {
		t.Error("inputs should be baselined after 4 ticks")
	}
}

func TestLoopDawnEvent(t *testing.T) {
	h := newHarness(monday(5, 45), gpio.NewFakeReader(repeat(gpio.Levels{}, 4)), 100*time.Millisecond, 0)
	h.run(t, 4, nil, syscall.SIGTERM)

	if got := h.eventTypes(); !equalTypes(got, []alarm.EventType{alarm.EventDawn}) {
		t.Fatalf("got %v, want [DAWN]", got)
	}
	snap := h.tracker.Snapshot()
	if snap.Phase != (datetime.Dawn{ElapsedSinceDawn: 5}) {
		t.Errorf("phase: got %s", snap.Phase)
	}
	if snap.Outputs.LED == nil {
		t.Error("expected the LED ramp to be on during dawn")
	}
	if snap.Radio.Samples != 42 || len(snap.Radio.Frame) != 2 {
		t.Errorf("decoder state: got %d samples, frame %v", snap.Radio.Samples, snap.Radio.Frame)
	}
}

func TestLoopProximityAck(t *testing.T) {
	samples := append(
		repeat(gpio.Levels{}, 2),
		repeat(gpio.Levels{Proximity: true}, 3)...,
	)
	h := newHarness(monday(6, 1), gpio.NewFakeReader(samples), 100*time.Millisecond, 0)
	h.run(t, len(samples), nil, syscall.SIGTERM)

	want := []alarm.EventType{alarm.EventSunrise, alarm.EventAck}
	if got := h.eventTypes(); !equalTypes(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if r := h.pub.Events[1].Reason; r != alarm.AckProximity {
		t.Errorf("reason: got %q", r)
	}
	if p := h.tracker.Snapshot().Phase; p != (datetime.Default{LastTriggerDay: 4}) {
		t.Errorf("phase: got %s", p)
	}
}

func TestLoopRadioSync(t *testing.T) {
	h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 2)), 100*time.Millisecond, 0)
	radio := monday(3, 2)
	radio.Time.HasSecond = false
	h.dec.push(dcf77.Step{Symbol: dcf77.Low, Datetime: &radio}, nil)
	h.run(t, 2, nil, syscall.SIGTERM)

	if got := h.eventTypes(); !equalTypes(got, []alarm.EventType{alarm.EventRadioSync}) {
		t.Fatalf("got %v, want [RADIO_SYNC]", got)
	}
	if w := h.rtc.Writes(); len(w) != 1 || w[0] != radio {
		t.Errorf("rtc writes: got %v", w)
	}
	snap := h.tracker.Snapshot()
	if snap.LastRadioSync == nil || *snap.LastRadioSync != radio {
		t.Errorf("last sync: got %v", snap.LastRadioSync)
	}
	if !snap.QuartersKnown || snap.Quarters != 0 {
		t.Errorf("quarters: got %d, %v", snap.Quarters, snap.QuartersKnown)
	}

	rec := httptest.NewRecorder()
	h.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	for _, want := range []string{
		"sunrise_clock_radio_syncs_total 1",
		`sunrise_clock_alarm_events_total{type="RADIO_SYNC"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics: missing %q", want)
		}
	}
}

func TestLoopDecoderErrorIsTracked(t *testing.T) {
	h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 3)), 100*time.Millisecond, 0)
	h.dec.push(dcf77.Step{}, &dcf77.Error{Kind: dcf77.KindBadBit, Count: 11})
	h.dec.push(dcf77.Step{}, &dcf77.Error{Kind: dcf77.KindBadBit, Count: 12})
	h.run(t, 3, nil, syscall.SIGTERM)

	snap := h.tracker.Snapshot()
	if !errors.Is(snap.Radio.LastError, dcf77.ErrBadBit) {
		t.Errorf("last error: got %v", snap.Radio.LastError)
	}
	if h.l.lastErrKind != dcf77.KindBadBit.String() {
		t.Errorf("last logged kind: got %q", h.l.lastErrKind)
	}
}

func TestLoopRTCReadError(t *testing.T) {
	h := newHarness(monday(5, 45), gpio.NewFakeReader(repeat(gpio.Levels{}, 2)), 100*time.Millisecond, 0)
	h.rtc.SetReadError(errors.New("nack"))
	h.run(t, 2, nil, syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("no phase can be computed without a time, got %v", h.eventTypes())
	}
	snap := h.tracker.Snapshot()
	if snap.RTCError == nil || snap.Datetime != nil {
		t.Errorf("got error %v, datetime %v", snap.RTCError, snap.Datetime)
	}
	if !h.l.rtcDown {
		t.Error("expected the read failure to be remembered")
	}
}

func TestLoopCommands(t *testing.T) {
	h := newHarness(monday(6, 1), gpio.NewFakeReader(repeat(gpio.Levels{}, 3)), 100*time.Millisecond, 0)
	dawn := uint8(30)
	seven := datetime.Time{Hour: 7}
	h.run(t, 3, []web.Command{
		{Kind: web.CommandAck},
		{Kind: web.CommandDawn, DawnMinutes: &dawn},
		{Kind: web.CommandWeekendSunrise, Sunrise: &seven},
		{Kind: web.CommandSetLED, Color: &alarm.Color{Red: 1, Green: 2, Blue: 3}},
	}, syscall.SIGTERM)

	// Changing a sunrise resets the phase, so 06:01 on Monday rings again.
	want := []alarm.EventType{alarm.EventSunrise, alarm.EventAck, alarm.EventSunrise}
	if got := h.eventTypes(); !equalTypes(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if r := h.pub.Events[1].Reason; r != alarm.AckManual {
		t.Errorf("reason: got %q", r)
	}

	snap := h.tracker.Snapshot()
	if d := snap.Settings.DawnDuration; d == nil || *d != 30 {
		t.Errorf("dawn: got %v", d)
	}
	if s := snap.Settings.WeekendSunrise; s == nil || *s != seven {
		t.Errorf("weekend sunrise: got %v", s)
	}
	if !snap.Outputs.LEDForced || *snap.Outputs.LED != (alarm.Color{Red: 1, Green: 2, Blue: 3}) {
		t.Errorf("outputs: got %+v", snap.Outputs)
	}
	if snap.Phase != (datetime.SunRise{ElapsedSinceSunrise: 1}) {
		t.Errorf("phase: got %s", snap.Phase)
	}
}

func TestLoopApply(t *testing.T) {
	h := newHarness(monday(6, 1), gpio.NewFakeReader(nil), 100*time.Millisecond, 0)
	now := time.Date(2023, 12, 4, 6, 1, 0, 0, time.UTC)

	six := datetime.Time{Hour: 6, Minute: 30}
	tests := []struct {
		name    string
		cmd     web.Command
		wantErr bool
		check   func() bool
	}{
		{"dawn off", web.Command{Kind: web.CommandDawn}, false,
			func() bool { return h.l.clk.Settings().DawnDuration == nil }},
		{"week sunrise", web.Command{Kind: web.CommandWeekSunrise, Sunrise: &six}, false,
			func() bool { s := h.l.clk.Settings().WeekSunrise; return s != nil && *s == six }},
		{"week sunrise resets phase", web.Command{Kind: web.CommandWeekSunrise, Sunrise: &six}, false,
			func() bool { return h.l.clk.Phase == (datetime.Default{}) }},
		{"set led without color", web.Command{Kind: web.CommandSetLED}, true, nil},
		{"clear led", web.Command{Kind: web.CommandClearLED}, false,
			func() bool { return !h.l.ctl.Outputs(h.l.clk).LEDForced }},
		{"unknown", web.Command{Kind: "reboot"}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := h.l.apply(tt.cmd, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if len(events) != 0 {
				t.Errorf("unexpected events %v", events)
			}
			if tt.check != nil && !tt.check() {
				t.Error("command not applied")
			}
		})
	}

	events, err := h.l.apply(web.Command{Kind: web.CommandAck}, now)
	if err != nil || len(events) != 1 || events[0].Reason != alarm.AckManual {
		t.Fatalf("ack: got %v, %v", events, err)
	}
}

func TestLoopHeartbeat(t *testing.T) {
	// Ticks at 5 minute steps: the inputs are baselined on the second tick
	// and the 15 minute heartbeat fires on the third.
	h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 4)), 5*time.Minute, 15*time.Minute)
	h.run(t, 4, nil, syscall.SIGTERM)

	var heartbeats, shutdowns int
	for _, se := range h.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			if se.Heartbeat == nil {
				t.Fatal("HEARTBEAT event missing heartbeat info")
			}
			if se.Heartbeat.UptimeSeconds != 15*60 {
				t.Errorf("uptime: got %d", se.Heartbeat.UptimeSeconds)
			}
			if !strings.Contains(string(se.RawPayload), `"HEARTBEAT"`) {
				t.Errorf("payload: got %s", se.RawPayload)
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "192.168.1.42")

	h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 3)), 5*time.Minute, 15*time.Minute)
	h.run(t, 3, nil, syscall.SIGTERM)

	for _, se := range h.pub.SystemEvents {
		if se.Event != "HEARTBEAT" {
			continue
		}
		if !strings.Contains(string(se.RawPayload), "192.168.1.42") {
			t.Errorf("heartbeat payload missing network info: %s", se.RawPayload)
		}
		return
	}
	t.Fatal("no HEARTBEAT event")
}

func TestLoopPublishError(t *testing.T) {
	h := newHarness(monday(5, 45), gpio.NewFakeReader(repeat(gpio.Levels{}, 2)), 100*time.Millisecond, 0)
	h.pub.PublishError = errors.New("broker unavailable")
	h.run(t, 2, nil, syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(h.pub.Events))
	}
	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
	if c := h.tracker.Snapshot().Counts; c.Dawn != 1 {
		t.Errorf("the event is counted even when publishing fails, got %+v", c)
	}
}

func TestLoopShutdownSignals(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{os.Kill, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(monday(3, 0), gpio.NewFakeReader(repeat(gpio.Levels{}, 1)), 100*time.Millisecond, 0)
			h.pub.Connected = true
			h.run(t, 1, nil, tt.sig)

			if len(h.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
			}
			se := h.pub.SystemEvents[0]
			if se.Event != "SHUTDOWN" || se.Reason != tt.want || !se.Retained {
				t.Errorf("got %+v", se)
			}
			if !strings.Contains(string(se.RawPayload), tt.want) {
				t.Errorf("payload missing reason: %s", se.RawPayload)
			}
			if !h.tracker.Snapshot().MQTTConnected {
				t.Error("expected the tracker to see the broker connection")
			}
		})
	}
}

func TestLoopInputErrorRecovery(t *testing.T) {
	// Ticks 0-2 fail; the clock keeps running meanwhile and the inputs
	// baseline once reads recover.
	reader := &faultReader{
		inner:      gpio.NewFakeReader(repeat(gpio.Levels{}, 3)),
		faultStart: 0,
		faultEnd:   3,
	}
	h := newHarness(monday(5, 45), reader, 100*time.Millisecond, 0)
	h.run(t, 6, nil, syscall.SIGTERM)

	if got := h.eventTypes(); !equalTypes(got, []alarm.EventType{alarm.EventDawn}) {
		t.Errorf("got %v, want [DAWN] despite input errors", got)
	}
	if h.l.inputsDown {
		t.Error("expected reads to have recovered")
	}
	if !h.tracker.Snapshot().Baselined {
		t.Error("expected a baseline after recovery")
	}
}
