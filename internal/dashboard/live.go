package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"guardly-cli/internal/livefeed"
	"guardly-cli/pkg/models"
)

type liveView struct {
	Camera *models.Camera
	Socket string
}

func (s *Server) feedOptions(cameraID int64) livefeed.Options {
	o := s.cfg.Feed
	o.Camera = strconv.FormatInt(cameraID, 10)
	return o
}

func (s *Server) dialFeed(cameraID int64) (*livefeed.Feed, error) {
	url, err := s.api.LiveURL(cameraID)
	if err != nil {
		return nil, err
	}
	return livefeed.Dial(context.Background(), url, s.feedOptions(cameraID)), nil
}

func (s *Server) livePage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cam, err := s.api.GetCamera(r.Context(), id)
	if err != nil {
		s.fail(w, r, statusFor(err), "Camera "+chi.URLParam(r, "id"), err)
		return
	}
	s.render(w, r, http.StatusOK, "live", page{
		Title:   "Live: " + cam.Location,
		Section: "cameras",
		Data:    liveView{Camera: cam, Socket: fmt.Sprintf("/cameras/%d/live/ws", id)},
	})
}

// liveSocket relays a camera feed to the browser. With ?session= it relays the feed of an
// open configurator so a capture visibly freezes the view; otherwise it opens its own feed
// and closes it when the browser goes away.
func (s *Server) liveSocket(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var shared *livefeed.Feed
	if sid := r.URL.Query().Get("session"); sid != "" {
		cs, ok := s.configs.get(sid)
		if !ok || cs.cfg.CameraID() != id {
			http.Error(w, "configurator session expired", http.StatusNotFound)
			return
		}
		shared = cs.feed
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	feed := shared
	if feed == nil {
		feed, err = s.dialFeed(id)
		if err != nil {
			s.log.Warn("open live feed", "camera", id, "error", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "live feed unavailable"))
			return
		}
		defer feed.Close()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// The browser never sends anything; reading only detects that it left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	relay := livefeed.NewRelay(feed, s.cfg.MaxFPS, s.feedMetrics)
	err = relay.Run(ctx, conn)
	switch {
	case err == nil:
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	case errors.Is(err, context.Canceled):
	default:
		s.log.Info("live relay ended", "camera", id, "error", err, "dropped", relay.Dropped())
	}
}
