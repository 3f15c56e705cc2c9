package metrics

import "github.com/prometheus/client_golang/prometheus"

// Feed holds the live feed counters, labelled by camera. A nil *Feed records nothing.
type Feed struct {
	frames     *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	reconnects *prometheus.CounterVec
	malformed  *prometheus.CounterVec
	motion     *prometheus.CounterVec
}

// NewFeed creates the counters and registers them on reg.
func NewFeed(reg prometheus.Registerer) *Feed {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guardly",
			Subsystem: "feed",
			Name:      name,
			Help:      help,
		}, []string{"camera"})
	}
	f := &Feed{
		frames:     counter("frames_total", "Frames received from the camera socket."),
		dropped:    counter("frames_dropped_total", "Frames discarded because the consumer was behind."),
		reconnects: counter("reconnects_total", "Reconnection attempts."),
		malformed:  counter("malformed_messages_total", "Text messages that failed to parse."),
		motion:     counter("motion_events_total", "Motion detected notifications."),
	}
	reg.MustRegister(f.frames, f.dropped, f.reconnects, f.malformed, f.motion)
	return f
}

func (f *Feed) Frame(camera string) {
	if f != nil {
		f.frames.WithLabelValues(camera).Inc()
	}
}

func (f *Feed) Dropped(camera string) {
	if f != nil {
		f.dropped.WithLabelValues(camera).Inc()
	}
}

func (f *Feed) Reconnect(camera string) {
	if f != nil {
		f.reconnects.WithLabelValues(camera).Inc()
	}
}

func (f *Feed) Malformed(camera string) {
	if f != nil {
		f.malformed.WithLabelValues(camera).Inc()
	}
}

func (f *Feed) Motion(camera string) {
	if f != nil {
		f.motion.WithLabelValues(camera).Inc()
	}
}
