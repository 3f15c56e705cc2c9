// Package livefeed owns the camera live socket: frames, motion notifications, the
// on-screen clock and reconnection, exposed as a single closable handle.
package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"guardly-cli/internal/logging"
	"guardly-cli/internal/metrics"
	"guardly-cli/pkg/models"
)

// ErrGaveUp is the terminal error once MaxAttempts consecutive dials have failed.
var ErrGaveUp = errors.New("livefeed: reconnection attempts exhausted")

const (
	DefaultFlashWindow  = time.Second
	DefaultTickInterval = time.Second
)

type Options struct {
	// Camera labels metrics and log lines.
	Camera string
	Dialer *websocket.Dialer

	BackoffInitial time.Duration
	BackoffMax     time.Duration
	MaxAttempts    int

	FlashWindow  time.Duration
	TickInterval time.Duration
	// Buffer is the capacity of the Events channel.
	Buffer int

	Metrics *metrics.Feed
	Logger  *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 500 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 30 * time.Second
	}
	o.BackoffMax = max(o.BackoffMax, o.BackoffInitial)
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 10
	}
	if o.FlashWindow <= 0 {
		o.FlashWindow = DefaultFlashWindow
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.Buffer <= 0 {
		o.Buffer = 64
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
}

// Feed is a live connection to one camera. It is created by Dial and must be released
// with Close.
//
// Events are delivered on a buffered channel. A consumer that falls behind loses events
// instead of stalling the socket; lost frames are counted by DroppedFrames. State, Motion
// and LastFrame always report the latest values. The channel is closed once the feed has
// stopped, and nothing is sent after that.
type Feed struct {
	url  string
	opts Options
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events   chan Event
	motionCh chan struct{}

	wg        sync.WaitGroup
	finished  chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	state  State
	err    error
	frame  []byte
	frozen bool
	alert  bool

	dropped atomic.Int64
}

// Dial starts connecting to url in the background and returns immediately.
// Cancelling ctx has the same effect as Close.
func Dial(ctx context.Context, url string, opts Options) *Feed {
	opts.setDefaults()
	ctx, cancel := context.WithCancel(ctx)

	f := &Feed{
		url:      url,
		opts:     opts,
		log:      opts.Logger.With("component", "livefeed", "camera", opts.Camera),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, opts.Buffer),
		motionCh: make(chan struct{}, 1),
		finished: make(chan struct{}),
		state:    StateConnecting,
	}

	f.wg.Add(2)
	go f.run()
	go f.clock()
	go f.finish()
	return f
}

func (f *Feed) Events() <-chan Event { return f.events }

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err is the reason the feed closed on its own, or nil.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// LastFrame returns the most recent accepted frame. The slice must not be modified.
func (f *Feed) LastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frame
}

// Motion reports whether the motion indicator is currently in the alert state.
func (f *Feed) Motion() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alert
}

func (f *Feed) DroppedFrames() int64 { return f.dropped.Load() }

// Freeze stops accepting frames; LastFrame keeps the frame current at the time of the call.
func (f *Feed) Freeze() {
	f.mu.Lock()
	f.frozen = true
	f.mu.Unlock()
}

func (f *Feed) Unfreeze() {
	f.mu.Lock()
	f.frozen = false
	f.mu.Unlock()
}

func (f *Feed) Frozen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frozen
}

// Close stops the socket, the clock and any pending motion timer, then waits for them.
// It is safe to call more than once.
func (f *Feed) Close() error {
	f.closeOnce.Do(f.cancel)
	<-f.finished
	return nil
}

func (f *Feed) run() {
	defer f.wg.Done()

	failures := 0
	for {
		conn, err := f.dial()
		if err != nil {
			if f.ctx.Err() != nil {
				return
			}
			failures++
			f.log.Warn("dial failed", "attempt", failures, "error", err)
			if failures >= f.opts.MaxAttempts {
				f.fail(fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, failures, err))
				return
			}
			f.transition(StateReconnecting, err)
			if !f.sleep(backoff(f.opts.BackoffInitial, f.opts.BackoffMax, failures)) {
				return
			}
			f.opts.Metrics.Reconnect(f.opts.Camera)
			continue
		}

		f.transition(StateOpen, nil)
		delivered, err := f.read(conn)
		if f.ctx.Err() != nil {
			return
		}
		// A socket that closes before delivering anything counts as a failed attempt.
		if delivered {
			failures = 0
		} else {
			failures++
		}
		f.log.Info("connection lost", "attempt", failures, "error", err)
		if failures >= f.opts.MaxAttempts {
			f.fail(fmt.Errorf("%w after %d attempts: %w", ErrGaveUp, failures, err))
			return
		}
		f.transition(StateReconnecting, err)
		if !f.sleep(backoff(f.opts.BackoffInitial, f.opts.BackoffMax, max(failures, 1))) {
			return
		}
		f.opts.Metrics.Reconnect(f.opts.Camera)
	}
}

func (f *Feed) dial() (*websocket.Conn, error) {
	conn, resp, err := f.opts.Dialer.DialContext(f.ctx, f.url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", f.url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", f.url, err)
	}
	return conn, nil
}

// read pumps messages until the connection fails and reports whether any arrived.
func (f *Feed) read(conn *websocket.Conn) (delivered bool, err error) {
	stop := context.AfterFunc(f.ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return delivered, err
		}
		delivered = true
		switch kind {
		case websocket.BinaryMessage:
			f.handleFrame(data)
		case websocket.TextMessage:
			f.handleText(data)
		}
	}
}

func (f *Feed) handleFrame(data []byte) {
	f.mu.Lock()
	if f.frozen {
		f.mu.Unlock()
		return
	}
	f.frame = data
	f.mu.Unlock()

	f.opts.Metrics.Frame(f.opts.Camera)
	if !f.emit(Event{Kind: EventFrame, Frame: data}) {
		f.dropped.Add(1)
		f.opts.Metrics.Dropped(f.opts.Camera)
	}
}

func (f *Feed) handleText(data []byte) {
	var msg models.LiveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		f.opts.Metrics.Malformed(f.opts.Camera)
		f.log.Debug("malformed message", "error", err, "bytes", len(data))
		f.emit(Event{Kind: EventMalformed, Err: fmt.Errorf("decode live message: %w", err)})
		return
	}
	if !msg.MotionDetected {
		return
	}
	f.opts.Metrics.Motion(f.opts.Camera)
	select {
	case f.motionCh <- struct{}{}:
	default:
		// a restart is already pending
	}
}

// clock drives the one-second tick and the motion flash window.
func (f *Feed) clock() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.opts.TickInterval)
	defer ticker.Stop()
	flash := time.NewTimer(f.opts.FlashWindow)
	flash.Stop()
	defer flash.Stop()

	var flashC <-chan time.Time
	for {
		select {
		case <-f.ctx.Done():
			return
		case now := <-ticker.C:
			f.emit(Event{Kind: EventTick, Time: now})
		case <-f.motionCh:
			flash.Reset(f.opts.FlashWindow)
			flashC = flash.C
			if f.setAlert(true) {
				f.emit(Event{Kind: EventMotion, Motion: true})
			}
		case <-flashC:
			flashC = nil
			if f.setAlert(false) {
				f.emit(Event{Kind: EventMotion, Motion: false})
			}
		}
	}
}

func (f *Feed) setAlert(on bool) (changed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed = f.alert != on
	f.alert = on
	return changed
}

// finish closes the events channel after run and clock have returned.
func (f *Feed) finish() {
	f.wg.Wait()
	f.cancel()
	f.setAlert(false)
	f.transition(StateClosed, f.Err())
	close(f.events)
	close(f.finished)
}

func (f *Feed) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	f.log.Error("giving up on live feed", "error", err)
	f.transition(StateClosed, err)
	f.cancel()
}

func (f *Feed) transition(to State, cause error) {
	f.mu.Lock()
	from := f.state
	if from == to || from == StateClosed {
		f.mu.Unlock()
		return
	}
	if !isValidTransition(from, to) {
		f.mu.Unlock()
		f.log.Warn("invalid state transition ignored", "from", from.String(), "to", to.String())
		return
	}
	f.state = to
	f.mu.Unlock()

	f.log.Debug("state transition", "from", from.String(), "to", to.String())
	f.emit(Event{Kind: EventState, State: to, Err: cause})
}

// emit never blocks. It reports whether the event was queued.
func (f *Feed) emit(ev Event) bool {
	select {
	case f.events <- ev:
		return true
	default:
		return false
	}
}

func (f *Feed) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-f.ctx.Done():
		return false
	}
}

// backoff is the wait after the n-th consecutive failure: initial doubled n-1 times, capped at max.
func backoff(initial, limit time.Duration, n int) time.Duration {
	d := initial
	for i := 1; i < n; i++ {
		d *= 2
		if d >= limit || d <= 0 {
			return limit
		}
	}
	return min(d, limit)
}
