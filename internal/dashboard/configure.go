package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"guardly-cli/internal/zone"
	"guardly-cli/pkg/models"
)

var errSessionExpired = errors.New("the configurator session expired, capture the still again")

type configView struct {
	zone.View
	Session string
	Socket  string
	Still   string
	Ticks   []zone.Tick
}

func configKey(cameraID int64) string {
	return fmt.Sprintf("configurator_%d", cameraID)
}

// configSession finds the operator's configurator for the camera, opening one (and its
// feed) when create is set.
func (s *Server) configSession(w http.ResponseWriter, r *http.Request, cameraID int64, create bool) (*configSession, error) {
	session, _ := s.sessions.Get(r, sessionName)
	sid, _ := session.Values[configKey(cameraID)].(string)
	if cs, ok := s.configs.get(sid); ok && cs.cfg.CameraID() == cameraID {
		return cs, nil
	}
	if !create {
		return nil, errSessionExpired
	}

	feed, err := s.dialFeed(cameraID)
	if err != nil {
		return nil, err
	}
	cfg := zone.New(cameraID, s.api, feed)
	if err := cfg.Load(r.Context()); err != nil {
		_ = feed.Close()
		return nil, err
	}
	cs := s.configs.open(cfg, feed)
	session.Values[configKey(cameraID)] = cs.id
	if err := session.Save(r, w); err != nil {
		s.configs.drop(cs.id)
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.log.Debug("configurator session opened", "session", cs.id, "camera", cameraID)
	return cs, nil
}

func (s *Server) configPage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cs, err := s.configSession(w, r, id, true)
	if err != nil {
		s.fail(w, r, statusFor(err), "Detection zone", err)
		return
	}
	base := "/cameras/" + strconv.FormatInt(id, 10)
	s.render(w, r, http.StatusOK, "config", page{
		Title:   "Detection zone: camera " + strconv.FormatInt(id, 10),
		Section: "cameras",
		Data: configView{
			View:    cs.cfg.View(),
			Session: cs.id,
			Socket:  base + "/live/ws?session=" + cs.id,
			Still:   base + "/config/still.png",
			Ticks:   zone.Ticks(),
		},
	})
}

func (s *Server) configAction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	back := "/cameras/" + strconv.FormatInt(id, 10) + "/config"
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	cs, err := s.configSession(w, r, id, false)
	if err != nil {
		s.redirectWith(w, r, back, "warning", err.Error())
		return
	}

	switch r.PostForm.Get("action") {
	case "capture":
		if err := cs.cfg.Capture(); err != nil {
			s.redirectWith(w, r, back, "error", captureMessage(err))
			return
		}
		s.redirectWith(w, r, back, "success", "Still captured, draw the zone on it")
	case "reset":
		cs.cfg.Reset()
		s.redirectWith(w, r, back, "success", "Configurator reset")
	case "save":
		if err := s.applyZone(cs.cfg, r); err != nil {
			s.redirectWith(w, r, back, "error", err.Error())
			return
		}
		if _, err := cs.cfg.Save(r.Context()); err != nil {
			s.log.Warn("save detection zone", "camera", id, "error", err)
			s.redirectWith(w, r, back, "error", "An error occurred while saving the zone: "+err.Error())
			return
		}
		s.configs.drop(cs.id)
		if session, err := s.sessions.Get(r, sessionName); err == nil {
			delete(session.Values, configKey(id))
			if err := session.Save(r, w); err != nil {
				s.log.Warn("forget configurator session", "camera", id, "error", err)
			}
		}
		s.redirectWith(w, r, "/cameras/"+strconv.FormatInt(id, 10), "success", "Detection zone saved")
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

// applyZone reads the rectangle and hour fields of the save form.
func (s *Server) applyZone(cfg *zone.Configurator, r *http.Request) error {
	var v [6]int
	for i, name := range []string{"x", "y", "width", "height", "start", "end"} {
		n, err := strconv.Atoi(r.PostForm.Get(name))
		if err != nil {
			return fmt.Errorf("%s must be a whole number", name)
		}
		v[i] = n
	}
	if err := cfg.SetRect(models.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}); err != nil {
		return err
	}
	return cfg.SetTimeRange(models.TimeRange{v[4], v[5]})
}

func captureMessage(err error) string {
	switch {
	case errors.Is(err, zone.ErrNoFrame):
		return "No frame has been received from the camera yet"
	case errors.Is(err, zone.ErrBadImage):
		return "The camera sent a frame that could not be decoded"
	default:
		return err.Error()
	}
}

func (s *Server) configStill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cs, err := s.configSession(w, r, id, false)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	still := cs.cfg.Still()
	if still == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(still)
}
