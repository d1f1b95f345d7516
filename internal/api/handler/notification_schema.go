package handler

import (
	"time"

	"github.com/haulmate/tracking-system/internal/core/domain"
	"github.com/haulmate/tracking-system/internal/core/ports"
)

type feedEventResponse struct {
	ID                 string              `json:"id"`
	SubjectRef         string              `json:"subject_ref"`
	Kind               string              `json:"kind"`
	Timestamp          time.Time           `json:"timestamp"`
	Geo                *domain.Coordinates `json:"geo,omitempty"`
	Verified           bool                `json:"verified"`
	VerificationMethod string              `json:"verification_method,omitempty"`
	Read               bool                `json:"read"`
}

func toFeedEventResponse(item ports.FeedItem) feedEventResponse {
	return feedEventResponse{
		ID:                 item.Event.ID,
		SubjectRef:         item.Event.SubjectRef,
		Kind:               string(item.Event.Kind),
		Timestamp:          item.Event.Timestamp,
		Geo:                item.Event.Geo,
		Verified:           item.Event.Verified,
		VerificationMethod: item.Event.VerificationMethod,
		Read:               item.Read,
	}
}

type listNotificationsResponse struct {
	Data        []feedEventResponse `json:"data"`
	UnreadCount int                 `json:"unread_count"`
}

type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type soundRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type soundResponse struct {
	Enabled bool `json:"enabled"`
}

// streamAlert is the wire shape pushed to websocket subscribers.
type streamAlert struct {
	Event  feedEventResponse `json:"event"`
	Source string            `json:"source"`
}
