package handler

import (
	"time"

	"github.com/haulmate/tracking-system/internal/core/domain"
)

// errorResponse documents the error envelope produced by the central HTTP
// error handler; referenced by the swagger annotations.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type submitPositionRequest struct {
	SubjectID  string   `json:"subject_id"  validate:"required"`
	Lat        float64  `json:"lat"         validate:"latitude"`
	Lng        float64  `json:"lng"         validate:"longitude"`
	AccuracyM  float64  `json:"accuracy_m"  validate:"gte=0"`
	SpeedMps   *float64 `json:"speed_mps,omitempty"`
	HeadingDeg *float64 `json:"heading_deg,omitempty"`
	AltitudeM  *float64 `json:"altitude_m,omitempty"`
	CapturedAt string   `json:"captured_at,omitempty"`
}

// position converts the request into the domain reading. A missing or
// unparsable captured_at defaults to the server receive time.
func (r submitPositionRequest) position() domain.DevicePosition {
	capturedAt := time.Now().UTC()
	if r.CapturedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CapturedAt); err == nil {
			capturedAt = t.UTC()
		}
	}
	return domain.DevicePosition{
		Lat:        r.Lat,
		Lng:        r.Lng,
		AccuracyM:  r.AccuracyM,
		SpeedMps:   r.SpeedMps,
		HeadingDeg: r.HeadingDeg,
		AltitudeM:  r.AltitudeM,
		CapturedAt: capturedAt,
	}
}

type sessionResponse struct {
	SubjectID        string    `json:"subject_id"`
	State            string    `json:"state"`
	Active           bool      `json:"active"`
	Mode             string    `json:"mode,omitempty"`
	UpdatesSent      int       `json:"updates_sent"`
	LastSentAt       time.Time `json:"last_sent_at,omitempty"`
	LastWriteOutcome string    `json:"last_write_outcome"`
}

func toSessionResponse(s domain.TrackingSession) sessionResponse {
	return sessionResponse{
		SubjectID:        s.SubjectID,
		State:            string(s.State),
		Active:           s.Active,
		Mode:             string(s.Mode),
		UpdatesSent:      s.UpdatesSent,
		LastSentAt:       s.LastSentAt,
		LastWriteOutcome: string(s.LastWriteOutcome),
	}
}

type positionResponse struct {
	SubjectID  string    `json:"subject_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMph   *float64  `json:"speed_mph,omitempty"`
	BatteryPct *int      `json:"battery_pct,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
}

func toPositionResponse(r domain.PositionReport) positionResponse {
	return positionResponse{
		SubjectID:  r.SubjectID,
		Lat:        r.Lat,
		Lng:        r.Lng,
		AccuracyM:  r.AccuracyM,
		SpeedMph:   r.SpeedMph,
		BatteryPct: r.BatteryPct,
		ReportedAt: r.ReportedAt,
	}
}

type replayRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
}
