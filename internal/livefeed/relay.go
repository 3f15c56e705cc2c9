package livefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"guardly-cli/internal/metrics"
)

// MessageWriter is the write side of a websocket connection.
type MessageWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// Status is the JSON text message a relay sends for everything that is not a frame.
type Status struct {
	Type   string `json:"type"` // state, motion, tick, malformed
	State  string `json:"state,omitempty"`
	Motion *bool  `json:"motion_detected,omitempty"`
	Time   string `json:"time,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Relay forwards one feed to a browser, capping the frame rate.
type Relay struct {
	feed    *Feed
	limiter *rate.Limiter
	metrics *metrics.Feed
	dropped atomic.Int64
}

// NewRelay caps frames at maxFPS; zero or less means unlimited.
func NewRelay(feed *Feed, maxFPS float64, m *metrics.Feed) *Relay {
	limit := rate.Inf
	if maxFPS > 0 {
		limit = rate.Limit(maxFPS)
	}
	return &Relay{feed: feed, limiter: rate.NewLimiter(limit, 1), metrics: m}
}

// Dropped counts frames the limiter refused.
func (r *Relay) Dropped() int64 { return r.dropped.Load() }

// Run copies events to w until the feed closes, ctx ends, or a write fails.
func (r *Relay) Run(ctx context.Context, w MessageWriter) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-r.feed.Events():
			if !ok {
				return r.feed.Err()
			}
			if err := r.forward(w, ev); err != nil {
				return fmt.Errorf("relay %s: %w", ev.Kind, err)
			}
		}
	}
}

func (r *Relay) forward(w MessageWriter, ev Event) error {
	var st Status
	switch ev.Kind {
	case EventFrame:
		if !r.limiter.Allow() {
			r.dropped.Add(1)
			r.metrics.Dropped(r.feed.opts.Camera)
			return nil
		}
		return w.WriteMessage(websocket.BinaryMessage, ev.Frame)
	case EventState:
		st = Status{Type: "state", State: ev.State.String()}
	case EventMotion:
		on := ev.Motion
		st = Status{Type: "motion", Motion: &on}
	case EventTick:
		st = Status{Type: "tick", Time: ev.Time.Format(time.TimeOnly)}
	case EventMalformed:
		st = Status{Type: "malformed"}
	default:
		return nil
	}
	if ev.Err != nil {
		st.Error = ev.Err.Error()
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return w.WriteMessage(websocket.TextMessage, b)
}
