package dashboard

import (
	"encoding/gob"
	"net/http"
)

// Flash is a one-shot banner shown on the next rendered page.
type Flash struct {
	Kind    string // success, error, warning
	Message string
}

func init() {
	gob.Register(Flash{})
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		s.log.Debug("discarding unreadable session", "error", err)
	}
	session.AddFlash(Flash{Kind: kind, Message: msg})
	if err := session.Save(r, w); err != nil {
		s.log.Warn("save flash", "error", err)
	}
}

// flashes pops the pending banners. It must run before the response is written.
func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		s.log.Warn("clear flashes", "error", err)
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// redirectWith stores a banner then sends the browser to url (post/redirect/get).
func (s *Server) redirectWith(w http.ResponseWriter, r *http.Request, url, kind, msg string) {
	s.flash(w, r, kind, msg)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
