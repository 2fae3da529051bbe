package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 1 << 10

// DawnRequest is the body of POST /api/dawn. A null Minutes disables dawn.
type DawnRequest struct {
	Minutes *int `json:"minutes"`
}

// SunriseRequest is the body of POST /api/sunrise/{week|weekend}. A null or
// empty Time disables the alarm.
type SunriseRequest struct {
	Time *string `json:"time"`
}

// LEDRequest is the body of POST /api/led.
type LEDRequest struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// Response is the body of every command response.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var errBusy = errors.New("control loop busy")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad request body: %w", err)
	}
	return nil
}

func writeResponse(w http.ResponseWriter, code int, err error) {
	resp := Response{OK: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// writeResult maps the outcome of a command to a status code.
func writeResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeResponse(w, http.StatusOK, nil)
	case errors.Is(err, errBusy):
		writeResponse(w, http.StatusServiceUnavailable, err)
	default:
		writeResponse(w, http.StatusInternalServerError, err)
	}
}
