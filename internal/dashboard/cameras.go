package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guardly-cli/internal/client"
	"guardly-cli/internal/directory"
	"guardly-cli/internal/forms"
	"guardly-cli/pkg/models"
)

var cameraFields = []string{"client_id", "adresse_ip", "localisation", "statut", "modele", "fabricant"}

type cameraFormView struct {
	Form       *forms.CameraForm
	Fields     map[string]string
	Clients    []models.Client
	ClientsErr error
	Action     string
}

type detailView struct {
	Rows    []forms.Row
	EditURL string
	Links   map[string]string
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// statusFor maps a client error to the status of the page that reports it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, client.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, client.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) cameraList(w http.ResponseWriter, r *http.Request) {
	d := directory.New(directory.CameraMatcher, s.cfg.PageSize)
	status := http.StatusOK
	if cams, err := s.api.GetCameras(r.Context()); err != nil {
		s.log.Warn("load cameras", "error", err)
		d.Fail(err)
		status = statusFor(err)
	} else {
		d.Load(cams)
	}
	applyQuery(d, r.URL.Query())
	s.render(w, r, status, "cameras", page{Title: "Cameras", Section: "cameras", Data: newListView(d, "/cameras")})
}

func (s *Server) cameraDetail(w http.ResponseWriter, r *http.Request) {
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
	base := "/cameras/" + strconv.FormatInt(id, 10)
	s.render(w, r, http.StatusOK, "detail", page{
		Title:   "Camera " + cam.Location,
		Section: "cameras",
		Data: detailView{
			Rows:    forms.CameraDetail(*cam),
			EditURL: base + "/edit",
			Links:   map[string]string{"Live view": base + "/live", "Detection zone": base + "/config"},
		},
	})
}

func (s *Server) cameraNew(w http.ResponseWriter, r *http.Request) {
	s.renderCameraForm(w, r, http.StatusOK, forms.NewCameraForm(), nil, nil)
}

func (s *Server) cameraCreate(w http.ResponseWriter, r *http.Request) {
	f := forms.NewCameraForm()
	if !s.bind(w, r, f.Set, cameraFields) {
		return
	}
	s.settle(w, r, f.Submit(r.Context(), s.api), func(status int, fields map[string]string, fl *Flash) {
		s.renderCameraForm(w, r, status, f, fields, fl)
	})
}

func (s *Server) cameraEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := forms.LoadCameraForm(r.Context(), s.api, id)
	if err != nil {
		s.fail(w, r, statusFor(err), "Edit camera", err)
		return
	}
	s.renderCameraForm(w, r, http.StatusOK, f, nil, nil)
}

func (s *Server) cameraUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f := &forms.CameraForm{ID: id}
	if !s.bind(w, r, f.Set, cameraFields) {
		return
	}
	s.settle(w, r, f.Submit(r.Context(), s.api), func(status int, fields map[string]string, fl *Flash) {
		s.renderCameraForm(w, r, status, f, fields, fl)
	})
}

func (s *Server) renderCameraForm(w http.ResponseWriter, r *http.Request, status int, f *forms.CameraForm, fields map[string]string, fl *Flash) {
	title, action := "New camera", "/cameras/new"
	if f.Editing() {
		title = "Edit camera " + strconv.FormatInt(f.ID, 10)
		action = "/cameras/" + strconv.FormatInt(f.ID, 10) + "/edit"
	}
	clients, err := s.clients(r.Context())
	p := page{
		Title:   title,
		Section: "cameras",
		Data:    cameraFormView{Form: f, Fields: fields, Clients: clients, ClientsErr: err, Action: action},
	}
	if fl != nil {
		p.Flashes = []Flash{*fl}
	}
	s.render(w, r, status, "camera_form", p)
}

// bind copies the posted fields into a form through its Set method.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, set func(name, value string) error, names []string) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return false
	}
	for _, name := range names {
		if _, ok := r.PostForm[name]; !ok {
			continue
		}
		if err := set(name, r.PostForm.Get(name)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return false
		}
	}
	return true
}

// settle turns a submission outcome into a redirect on success or a re-rendered form.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, out forms.Outcome, rerender func(status int, fields map[string]string, fl *Flash)) {
	switch {
	case out.OK:
		s.redirectWith(w, r, out.Redirect, "success", out.Message)
	case out.Fields != nil:
		rerender(http.StatusUnprocessableEntity, out.Fields, &Flash{Kind: "error", Message: out.Message})
	default:
		s.log.Warn("submit failed", "path", r.URL.Path, "error", out.Err)
		msg := out.Message
		if out.Err != nil {
			msg += ": " + out.Err.Error()
		}
		rerender(statusFor(out.Err), nil, &Flash{Kind: "error", Message: msg})
	}
}
