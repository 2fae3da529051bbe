package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
	"github.com/sweeney/sunrise-clock/internal/gpio"
	"github.com/sweeney/sunrise-clock/internal/metrics"
	"github.com/sweeney/sunrise-clock/internal/mqtt"
	"github.com/sweeney/sunrise-clock/internal/status"
	"github.com/sweeney/sunrise-clock/internal/web"
)

// decoderState exposes the decoder internals shown on the status page.
type decoderState interface {
	Samples() int
	Pending() []dcf77.Symbol
}

// loop is the single owner of the clock and the controller. HTTP commands
// reach it through a channel.
type loop struct {
	clk        *clock.Clock
	dec        decoderState
	ctl        *alarm.Controller
	inputs     gpio.Reader
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	heartbeat  time.Duration
	now        func() time.Time

	levels      gpio.Levels
	inputsDown  bool
	rtcDown     bool
	lastErrKind string
}

func (l *loop) run(tick <-chan time.Time, commands <-chan web.Command, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			l.shutdown(s)
			return nil

		case cmd := <-commands:
			t := l.now()
			events, err := l.apply(cmd, t)
			cmd.Reply(err)
			if err != nil {
				log.Printf("command %s: %v", cmd.Kind, err)
				continue
			}
			infof("command: %s", cmd.Kind)
			l.publish(events)
			l.refresh(clock.Report{}, t)

		case <-tick:
			l.step(l.now())
		}
	}
}

// step runs one control iteration.
func (l *loop) step(t time.Time) {
	rep := l.clk.Update()
	l.logReport(rep)

	lv, err := l.inputs.Read()
	if err != nil {
		if !l.inputsDown {
			log.Printf("gpio read error: %v", err)
		}
		l.inputsDown = true
	} else {
		if l.inputsDown {
			infof("gpio read recovered")
		}
		l.inputsDown = false
		l.levels = lv
	}

	events := l.ctl.Process(l.clk, rep, alarm.Input{
		Button:     l.levels.Button,
		Luminosity: l.levels.Luminosity,
		Proximity:  l.levels.Proximity,
		Time:       t,
	})
	l.publish(events)
	l.refresh(rep, t)

	if !l.ctl.IsBaselined() {
		// Still waiting for baseline
		return
	}
	if hb := l.ctl.CheckHeartbeat(t, l.heartbeat); hb != nil {
		infof("heartbeat: uptime=%v dawn=%d sunrise=%d default=%d ack=%d radio_sync=%d",
			hb.Uptime, hb.Counts.Dawn, hb.Counts.Sunrise, hb.Counts.Default, hb.Counts.Ack, hb.Counts.RadioSync)
		ev := mqtt.NewHeartbeatEvent(*hb)
		if l.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				l.tracker.SetNetwork(net)
			}
			ev.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
		}
		if err := l.publisher.PublishSystem(ev); err != nil {
			log.Printf("heartbeat publish error: %v", err)
		}
	}
}

// apply runs a command from the HTTP server.
func (l *loop) apply(cmd web.Command, t time.Time) ([]alarm.Event, error) {
	switch cmd.Kind {
	case web.CommandAck:
		return l.ctl.Ack(l.clk, t, alarm.AckManual), nil
	case web.CommandDawn:
		l.clk.SetDawnDuration(cmd.DawnMinutes)
	case web.CommandWeekSunrise:
		l.clk.SetWeekSunrise(cmd.Sunrise)
	case web.CommandWeekendSunrise:
		l.clk.SetWeekendSunrise(cmd.Sunrise)
	case web.CommandSetLED:
		if cmd.Color == nil {
			return nil, errors.New("missing color")
		}
		l.ctl.ForceColor(cmd.Color)
	case web.CommandClearLED:
		l.ctl.ForceColor(nil)
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Kind)
	}
	return nil, nil
}

func (l *loop) publish(events []alarm.Event) {
	for _, event := range events {
		infof("event: %s (phase=%s)", event.Type, event.Phase)
		if err := l.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}
	if l.metrics != nil {
		l.metrics.Events(events)
	}
}

// refresh updates the status tracker and metrics for HTTP consumers.
func (l *loop) refresh(rep clock.Report, t time.Time) {
	connected := false
	if l.mqttStatus != nil {
		connected = l.mqttStatus.IsConnected()
	}
	if l.tracker != nil {
		l.tracker.Update(l.clk, rep, l.ctl, t)
		if l.dec != nil {
			l.tracker.SetDecoder(l.dec.Samples(), l.dec.Pending())
		}
		l.tracker.SetMQTTConnected(connected)
	}
	if l.metrics != nil {
		l.metrics.Observe(l.clk, rep, t)
		l.metrics.SetMQTTConnected(connected)
	}
}

// logReport logs the clock update. Decoder errors are expected with a weak
// signal, so only a change of error kind is logged.
func (l *loop) logReport(rep clock.Report) {
	switch {
	case rep.DecodeErr != nil:
		if kind := errorKind(rep.DecodeErr); kind != l.lastErrKind {
			log.Printf("dcf77: %v", rep.DecodeErr)
			l.lastErrKind = kind
		}
	case rep.Symbol != dcf77.NoSymbol:
		l.lastErrKind = ""
	}
	if rep.Synced != nil {
		infof("dcf77: decoded %s", rep.Synced)
	}
	if rep.WriteErr != nil {
		log.Printf("rtc: write failed: %v", rep.WriteErr)
	}
	if rep.ReadErr != nil {
		if !l.rtcDown {
			log.Printf("rtc: read failed: %v", rep.ReadErr)
		}
		l.rtcDown = true
	} else if l.rtcDown {
		infof("rtc: read recovered")
		l.rtcDown = false
	}
}

func errorKind(err error) string {
	var de *dcf77.Error
	if errors.As(err, &de) {
		return de.Kind.String()
	}
	return err.Error()
}

func (l *loop) shutdown(s os.Signal) {
	infof("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if l.tracker != nil {
		if l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		infof("published shutdown event")
	}
}
