// Command sunrise-clock decodes the DCF77 time signal, keeps a real-time
// clock in sync and runs a dawn simulating alarm.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/config"
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
	"github.com/sweeney/sunrise-clock/internal/gpio"
	"github.com/sweeney/sunrise-clock/internal/metrics"
	"github.com/sweeney/sunrise-clock/internal/mqtt"
	"github.com/sweeney/sunrise-clock/internal/rtc"
	"github.com/sweeney/sunrise-clock/internal/status"
	"github.com/sweeney/sunrise-clock/internal/timer"
	"github.com/sweeney/sunrise-clock/internal/web"
)

// DCF77 broadcasts German civil time.
const timeZone = "Europe/Berlin"

// quiet suppresses informational logging; errors are always printed.
var quiet bool

func infof(format string, args ...any) {
	if quiet {
		return
	}
	log.Printf(format, args...)
}

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML configuration file (defaults apply when empty)")
	httpAddr := pflag.String("http", "", "HTTP status address, overrides http.addr (\"off\" disables)")
	broker := pflag.String("broker", "", "MQTT broker URL, overrides mqtt.broker (\"off\" disables)")
	printState := pflag.Bool("print-state", false, "Print the RTC time and input levels, then exit")
	simulate := pflag.Bool("simulate", false, "Replace the radio receiver and RTC with a synthetic signal and the host clock")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if pflag.CommandLine.Changed("http") {
		cfg.HTTP.Addr = flagValue(*httpAddr)
	}
	if pflag.CommandLine.Changed("broker") {
		cfg.MQTT.Broker = flagValue(*broker)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg, *simulate, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func flagValue(v string) string {
	if v == "off" {
		return ""
	}
	return v
}

func run(cfg *config.Config, simulate, printState bool) error {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		log.Printf("load %s: %v, using local time", timeZone, err)
		loc = time.Local
	}

	hw, err := openHardware(cfg, simulate, loc)
	if err != nil {
		return err
	}
	defer hw.Close()

	if printState {
		return printHardwareState(hw)
	}

	settings, err := cfg.ClockSettings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hwClock := timer.NewHardwareClock()
	go timer.NewSampler(hwClock, hw.radio).Run(ctx)
	dec := dcf77.New(hwClock)
	clk := clock.New(dec, hw.rtc, settings)

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			BufferSize:  cfg.MQTT.Buffer,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = p
	}
	defer publisher.Close()

	start := time.Now()
	ctl := alarm.NewController(cfg.ControllerConfig(), start)
	tracker := status.NewTracker(start, status.Config{
		TickMs:      cfg.Loop.Interval.Milliseconds(),
		DebounceMs:  cfg.Inputs.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Loop.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		RTC:         hw.rtcName,
		Simulated:   simulate,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	m := metrics.New()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		infof("published startup event")
	}

	var commands chan web.Command
	if cfg.HTTP.Addr != "" {
		commands = make(chan web.Command)
		srv := web.New(cfg.HTTP.Addr, tracker, commands, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	infof("started: rtc=%s interval=%v debounce=%v broker=%q heartbeat=%v simulate=%v",
		hw.rtcName, cfg.Loop.Interval, cfg.Inputs.Debounce, cfg.MQTT.Broker, cfg.Loop.Heartbeat, simulate)

	ticker := time.NewTicker(cfg.Loop.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		clk:        clk,
		dec:        dec,
		ctl:        ctl,
		inputs:     hw.inputs,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    m,
		heartbeat:  cfg.Loop.Heartbeat,
		now:        time.Now,
	}
	return l.run(ticker.C, commands, sigCh)
}

// hardware holds the opened devices.
type hardware struct {
	radio   timer.Line
	inputs  gpio.Reader
	rtc     rtc.RTC
	rtcName string
	closers []func() error
}

func openHardware(cfg *config.Config, simulate bool, loc *time.Location) (*hardware, error) {
	hw := &hardware{}

	if simulate {
		hw.radio = simulatedRadio(loc)
		hw.inputs = gpio.NewFakeReader([]gpio.Levels{{}})
		hw.rtc = rtc.NewSystem(loc)
		hw.rtcName = config.DriverSystem
		return hw, nil
	}

	radio, err := gpio.OpenLine(cfg.Radio.Chip, cfg.Radio.GPIO())
	if err != nil {
		return nil, fmt.Errorf("init radio line: %w", err)
	}
	hw.radio = radio
	hw.closers = append(hw.closers, radio.Close)

	inputs, err := gpio.NewRealReader(cfg.Inputs.Chip,
		cfg.Inputs.Button.GPIO(), cfg.Inputs.Luminosity.GPIO(), cfg.Inputs.Proximity.GPIO())
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("init inputs: %w", err)
	}
	hw.inputs = inputs
	hw.closers = append(hw.closers, inputs.Close)

	switch cfg.RTC.Driver {
	case config.DriverDS3231:
		d, bus, err := rtc.OpenDS3231(cfg.RTC.Bus, cfg.RTC.Address)
		if err != nil {
			hw.Close()
			return nil, fmt.Errorf("init rtc: %w", err)
		}
		hw.rtc = d
		hw.closers = append(hw.closers, bus.Close)
	default:
		hw.rtc = rtc.NewSystem(loc)
	}
	hw.rtcName = cfg.RTC.Driver
	return hw, nil
}

// Close releases the devices in reverse order of opening.
func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			log.Printf("close hardware: %v", err)
		}
	}
	h.closers = nil
}

// simulatedRadio returns a receiver output carrying the host time. The
// signal starts at the current minute, so the first frame completes at the
// next minute marker.
func simulatedRadio(loc *time.Location) *dcf77.SynthLine {
	epoch := time.Now().Truncate(time.Minute)
	local := epoch.In(loc)
	start, err := datetime.FromTime(local)
	if err != nil {
		log.Printf("simulate: %v", err)
	}
	start.Time.Second, start.Time.HasSecond = 0, false
	return dcf77.NewSynthLine(dcf77.NewSynth(start, local.IsDST()), epoch, time.Now)
}

func printHardwareState(hw *hardware) error {
	dt, err := hw.rtc.Read()
	if err != nil {
		return fmt.Errorf("read rtc: %w", err)
	}
	radio, err := hw.radio.Value()
	if err != nil {
		return fmt.Errorf("read radio line: %w", err)
	}
	lv, err := hw.inputs.Read()
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	fmt.Printf("RTC: %s, Radio: %s, Button: %s, Luminosity: %s, Proximity: %s\n",
		dt, stateString(radio), stateString(lv.Button), stateString(lv.Luminosity), stateString(lv.Proximity))
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
