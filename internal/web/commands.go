package web

import (
	"fmt"
	"net/http"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// CommandKind names a settings change requested over HTTP.
type CommandKind string

const (
	CommandAck            CommandKind = "ack"
	CommandDawn           CommandKind = "dawn"
	CommandWeekSunrise    CommandKind = "week_sunrise"
	CommandWeekendSunrise CommandKind = "weekend_sunrise"
	CommandSetLED         CommandKind = "set_led"
	CommandClearLED       CommandKind = "clear_led"
)

// Command is a request for the control loop, which owns the clock. The
// loop must call Reply exactly once.
type Command struct {
	Kind CommandKind
	// DawnMinutes is set for CommandDawn; nil disables dawn.
	DawnMinutes *uint8
	// Sunrise is set for the sunrise commands; nil disables the alarm.
	Sunrise *datetime.Time
	// Color is set for CommandSetLED.
	Color *alarm.Color

	reply chan error
}

// Reply reports the outcome to the waiting request.
func (c Command) Reply(err error) {
	if c.reply != nil {
		c.reply <- err
	}
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.send(r.Context(), Command{Kind: CommandAck}))
}

func (s *Server) handleDawn(w http.ResponseWriter, r *http.Request) {
	var req DawnRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, err)
		return
	}
	cmd := Command{Kind: CommandDawn}
	if req.Minutes != nil {
		if *req.Minutes < 0 || *req.Minutes > 255 {
			writeResponse(w, http.StatusBadRequest, fmt.Errorf("minutes %d out of range [0, 255]", *req.Minutes))
			return
		}
		m := uint8(*req.Minutes)
		cmd.DawnMinutes = &m
	}
	writeResult(w, s.send(r.Context(), cmd))
}

func (s *Server) handleSunrise(w http.ResponseWriter, r *http.Request) {
	var kind CommandKind
	switch r.PathValue("which") {
	case "week":
		kind = CommandWeekSunrise
	case "weekend":
		kind = CommandWeekendSunrise
	default:
		http.NotFound(w, r)
		return
	}

	var req SunriseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, err)
		return
	}
	cmd := Command{Kind: kind}
	if req.Time != nil && *req.Time != "" {
		t, err := datetime.ParseTime(*req.Time)
		if err != nil {
			writeResponse(w, http.StatusBadRequest, err)
			return
		}
		cmd.Sunrise = &t
	}
	writeResult(w, s.send(r.Context(), cmd))
}

func (s *Server) handleSetLED(w http.ResponseWriter, r *http.Request) {
	var req LEDRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeResponse(w, http.StatusBadRequest, err)
		return
	}
	col := alarm.Color{Red: req.Red, Green: req.Green, Blue: req.Blue}
	writeResult(w, s.send(r.Context(), Command{Kind: CommandSetLED, Color: &col}))
}

func (s *Server) handleClearLED(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.send(r.Context(), Command{Kind: CommandClearLED}))
}
