package domain

import "time"

// EventKind classifies a domain event.
type EventKind string

const (
	KindArrival   EventKind = "arrival"
	KindDeparture EventKind = "departure"
)

// DomainEvent is an arrival/departure-style event created upstream. The core
// only reads, orders, and annotates events with local read state; it never
// mutates one after ingestion.
type DomainEvent struct {
	ID                 string            `json:"id" bson:"_id"`
	SubjectRef         string            `json:"subject_ref" bson:"subject_ref"`
	Kind               EventKind         `json:"kind" bson:"kind"`
	Timestamp          time.Time         `json:"timestamp" bson:"timestamp"`
	Geo                *Coordinates      `json:"geo,omitempty" bson:"geo,omitempty"`
	Verified           bool              `json:"verified" bson:"verified"`
	VerificationMethod string            `json:"verification_method,omitempty" bson:"verification_method,omitempty"`
	Extra              map[string]string `json:"extra,omitempty" bson:"extra,omitempty"`
}
