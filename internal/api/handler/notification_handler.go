package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haulmate/tracking-system/internal/core/ports"
)

// NotificationHandler handles HTTP requests for the notification feed.
type NotificationHandler struct {
	feed     ports.NotificationFeed
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewNotificationHandler(feed ports.NotificationFeed, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: log,
	}
}

// List handles GET /v1/notifications.
//
// @Summary      List feed notifications, most recent first
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  listNotificationsResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	items := h.feed.List()
	data := make([]feedEventResponse, 0, len(items))
	for _, item := range items {
		data = append(data, toFeedEventResponse(item))
	}
	return c.JSON(http.StatusOK, listNotificationsResponse{
		Data:        data,
		UnreadCount: h.feed.UnreadCount(),
	})
}

// UnreadCount handles GET /v1/notifications/unread-count.
//
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  unreadCountResponse
// @Router       /v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	return c.JSON(http.StatusOK, unreadCountResponse{UnreadCount: h.feed.UnreadCount()})
}

// MarkRead handles POST /v1/notifications/:id/read.
//
// @Summary      Mark one notification as read
// @Tags         notifications
// @Produce      json
// @Param        id   path  string  true  "Event identifier"
// @Success      204  "marked read"
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.feed.MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark every feed notification as read
// @Tags         notifications
// @Success      204  "all marked read"
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.feed.MarkAllRead(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetSound handles PUT /v1/notifications/sound.
//
// @Summary      Set the notification sound preference
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        body  body      soundRequest  true  "Desired sound setting"
// @Success      200   {object}  soundResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/notifications/sound [put]
func (h *NotificationHandler) SetSound(c echo.Context) error {
	var req soundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.feed.SetSound(c.Request().Context(), *req.Enabled); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, soundResponse{Enabled: h.feed.Sound()})
}

// Sound handles GET /v1/notifications/sound.
//
// @Summary      Get the notification sound preference
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  soundResponse
// @Router       /v1/notifications/sound [get]
func (h *NotificationHandler) Sound(c echo.Context) error {
	return c.JSON(http.StatusOK, soundResponse{Enabled: h.feed.Sound()})
}

// Stream handles GET /v1/notifications/stream: a websocket pushing one JSON
// message per fresh feed alert. The subscription ends when the client
// disconnects.
//
// @Summary      Stream feed alerts over a websocket
// @Tags         notifications
// @Success      101  "switching protocols"
// @Router       /v1/notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	alerts, cancel := h.feed.Subscribe()
	defer cancel()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case alert, ok := <-alerts:
			if !ok {
				return nil
			}
			msg := streamAlert{
				Event:  toFeedEventResponse(ports.FeedItem{Event: alert.Event}),
				Source: alert.Source,
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("notification stream write failed, closing")
				return nil
			}
		case <-done:
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}
