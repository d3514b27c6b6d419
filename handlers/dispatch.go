package handlers

import (
	"fmt"
	"log/slog"

	"chatrelay/hub"
	"chatrelay/metrics"
	"chatrelay/models"
)

// Dispatcher turns inbound events into hub operations and failures into
// room-error replies. Each connection calls it from a single goroutine, so
// one connection's events are handled strictly in order.
type Dispatcher struct {
	hub     *hub.Hub
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(h *hub.Hub, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{hub: h, log: logger, metrics: m}
}

// HandleFrame decodes one websocket frame and dispatches it. Frames that do
// not decode are answered with an invalid-input room-error.
func (d *Dispatcher) HandleFrame(s hub.Sink, raw []byte) {
	ev, err := models.DecodeInbound(raw)
	if err != nil {
		d.metrics.InboundEvents.WithLabelValues("malformed").Inc()
		d.reject(s, "malformed", fmt.Errorf("%w: %w", hub.ErrInvalidInput, err))
		return
	}
	d.Dispatch(s, ev)
}

func (d *Dispatcher) Dispatch(s hub.Sink, ev models.Inbound) {
	switch ev := ev.(type) {
	case models.CreateRoom:
		d.metrics.InboundEvents.WithLabelValues(models.EventCreateRoom).Inc()
		// room-created is queued by the hub
		if _, err := d.hub.CreateRoom(s.ID(), ev.Username, ev.MaxUsers); err != nil {
			d.reject(s, models.EventCreateRoom, err)
		}

	case models.JoinRoom:
		d.metrics.InboundEvents.WithLabelValues(models.EventJoinRoom).Inc()
		if _, err := d.hub.JoinRoom(s.ID(), ev.RoomCode, ev.Username); err != nil {
			d.reject(s, models.EventJoinRoom, err)
		}

	case models.SendMessage:
		d.metrics.InboundEvents.WithLabelValues(models.EventSendMessage).Inc()
		if _, err := d.hub.PostMessage(s.ID(), ev.Text); err != nil {
			d.reject(s, models.EventSendMessage, err)
		}

	case models.LeaveRoom:
		d.metrics.InboundEvents.WithLabelValues(models.EventLeaveRoom).Inc()
		if code, ok := d.hub.LeaveRoom(s.ID()); ok {
			s.Send(models.RoomLeftEvent(code))
		}

	case models.Disconnect:
		d.hub.Disconnect(s.ID())
	}
}

func (d *Dispatcher) reject(s hub.Sink, event string, err error) {
	kind := hub.Kind(err)
	d.metrics.RoomErrors.WithLabelValues(kind).Inc()

	if kind == "internal" {
		d.log.Error("dispatch.failed", "conn", s.ID(), "event", event, "err", err)
	} else {
		d.log.Debug("dispatch.rejected", "conn", s.ID(), "event", event, "kind", kind, "err", err)
	}
	s.Send(models.RoomErrorEvent(hub.Reason(err)))
}
