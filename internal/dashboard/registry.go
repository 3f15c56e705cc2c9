package dashboard

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"guardly-cli/internal/livefeed"
	"guardly-cli/internal/zone"
)

// configSession is one operator's open configurator and the feed it captures from.
type configSession struct {
	id   string
	cfg  *zone.Configurator
	feed *livefeed.Feed
}

// registry expires abandoned configurator sessions; eviction closes the feed.
type registry struct {
	items *cache.Cache
}

func newRegistry(ttl time.Duration, log *slog.Logger) *registry {
	items := cache.New(ttl, time.Minute)
	items.OnEvicted(func(key string, v any) {
		if cs, ok := v.(*configSession); ok {
			log.Debug("configurator session released", "session", key, "camera", cs.cfg.CameraID())
			_ = cs.feed.Close()
		}
	})
	return &registry{items: items}
}

func (r *registry) open(cfg *zone.Configurator, feed *livefeed.Feed) *configSession {
	cs := &configSession{id: uuid.NewString(), cfg: cfg, feed: feed}
	r.items.SetDefault(cs.id, cs)
	return cs
}

// get returns a live session and pushes its expiry back.
func (r *registry) get(id string) (*configSession, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := r.items.Get(id)
	if !ok {
		return nil, false
	}
	cs := v.(*configSession)
	r.items.SetDefault(id, cs)
	return cs, true
}

func (r *registry) drop(id string) {
	r.items.Delete(id)
}

func (r *registry) count() int {
	return r.items.ItemCount()
}

func (r *registry) closeAll() {
	for id := range r.items.Items() {
		r.items.Delete(id)
	}
}
