package hub

import (
	"chatrelay/metrics"
	"chatrelay/models"
)

// Sink is the hub's handle on one client connection. The transport owns
// it; the hub only keeps a reference by connection id.
//
// Send must not block. It reports false when the event could not be
// queued, typically because the connection is gone or too slow.
type Sink interface {
	ID() string
	Send(ev models.Outbound) bool
	Close()
}

// router fans events out to room members. A failed push is counted and
// otherwise ignored: the transport notices the dead connection and raises
// the disconnect that cleans up membership.
type router struct {
	resolve func(connID string) (Sink, bool)
	metrics *metrics.Metrics
}

func (rt *router) send(connID string, ev models.Outbound) bool {
	s, ok := rt.resolve(connID)
	if !ok || !s.Send(ev) {
		rt.metrics.DeliveriesDropped.Inc()
		return false
	}
	return true
}

// broadcast delivers ev to every member of r except exclude and returns the
// number of successful pushes. The caller holds r.mu, so the recipient set
// is the one produced by the triggering mutation.
func (rt *router) broadcast(r *room, ev models.Outbound, exclude string) int {
	delivered := 0
	for _, m := range r.members {
		if m.ConnectionID == exclude {
			continue
		}
		if rt.send(m.ConnectionID, ev) {
			delivered++
		}
	}
	return delivered
}
