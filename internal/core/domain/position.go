package domain

import "time"

// TrackingMode indicates how position updates are being acquired.
type TrackingMode string

const (
	// ModeContinuous means a continuous high-accuracy subscription is active.
	ModeContinuous TrackingMode = "continuous"
	// ModePolling means updates come from timer-driven single reads.
	ModePolling TrackingMode = "polling"
)

// SessionState is the lifecycle state of a tracking session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateAcquiring SessionState = "acquiring"
	StateTracking  SessionState = "tracking"
	StateStopped   SessionState = "stopped"
	StateErrored   SessionState = "errored"
)

// WriteOutcome is the most recent primary-write status of the reporting
// pipeline, surfaced so surrounding UI can render it.
type WriteOutcome string

const (
	OutcomeIdle    WriteOutcome = "idle"
	OutcomeWriting WriteOutcome = "writing"
	OutcomeSuccess WriteOutcome = "success"
	OutcomeError   WriteOutcome = "error"
)

// DevicePosition is the latest known geographic reading for a device.
// It is ephemeral: the core keeps only the most recent value.
type DevicePosition struct {
	Lat        float64    `json:"lat" bson:"lat"`
	Lng        float64    `json:"lng" bson:"lng"`
	AccuracyM  float64    `json:"accuracy_m" bson:"accuracy_m"`
	SpeedMps   *float64   `json:"speed_mps,omitempty" bson:"speed_mps,omitempty"`
	HeadingDeg *float64   `json:"heading_deg,omitempty" bson:"heading_deg,omitempty"`
	AltitudeM  *float64   `json:"altitude_m,omitempty" bson:"altitude_m,omitempty"`
	CapturedAt time.Time  `json:"captured_at" bson:"captured_at"`
}

// Coordinates returns the lat/lng pair of the position.
func (p DevicePosition) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lng: p.Lng}
}

// TrackingSession is the mutable state of one subject's live-tracking run.
// It is owned exclusively by the acquisition/reporting pair.
type TrackingSession struct {
	SubjectID        string       `json:"subject_id"`
	State            SessionState `json:"state"`
	Active           bool         `json:"active"`
	Mode             TrackingMode `json:"mode,omitempty"`
	UpdatesSent      int          `json:"updates_sent"`
	LastSentAt       time.Time    `json:"last_sent_at,omitempty"`
	LastWriteOutcome WriteOutcome `json:"last_write_outcome"`
}

// PositionReport is a DevicePosition enriched with the derived fields the
// reporting pipeline attaches before the primary write.
type PositionReport struct {
	DevicePosition `bson:",inline"`
	SubjectID      string    `json:"subject_id" bson:"subject_id"`
	SpeedMph       *float64  `json:"speed_mph,omitempty" bson:"speed_mph,omitempty"`
	BatteryPct     *int      `json:"battery_pct,omitempty" bson:"battery_pct,omitempty"`
	ReportedAt     time.Time `json:"reported_at" bson:"reported_at"`
}
