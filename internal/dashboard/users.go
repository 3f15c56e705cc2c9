package dashboard

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"guardly-cli/internal/directory"
	"guardly-cli/internal/forms"
	"guardly-cli/pkg/models"
)

var (
	clientFields     = []string{"nom_entreprise", "adresse", "latitude", "longitude", "plan_abonnement_id"}
	userCreateFields = append([]string{"email", "nom", "mot_de_passe", "role"}, clientFields...)
	userEditFields   = append([]string{"email", "nom", "role"}, clientFields...)
)

type userFormView struct {
	Create     *forms.UserCreateForm
	Edit       *forms.UserEditForm
	Email      string
	Name       string
	Role       models.Role
	Client     forms.ClientFields
	ShowClient bool
	Fields     map[string]string
	Plans      []models.SubscriptionPlan
	PlansErr   error
	Action     string
}

func (s *Server) userList(w http.ResponseWriter, r *http.Request) {
	d := directory.New(directory.UserMatcher, s.cfg.PageSize)
	status := http.StatusOK
	if users, err := s.api.GetUsers(r.Context()); err != nil {
		s.log.Warn("load users", "error", err)
		d.Fail(err)
		status = statusFor(err)
	} else {
		d.Load(users)
	}
	applyQuery(d, r.URL.Query())
	s.render(w, r, status, "users", page{Title: "Users", Section: "users", Data: newListView(d, "/users")})
}

func (s *Server) userDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	u, err := s.api.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, statusFor(err), "User "+chi.URLParam(r, "id"), err)
		return
	}
	s.render(w, r, http.StatusOK, "detail", page{
		Title:   "User " + u.Name,
		Section: "users",
		Data: detailView{
			Rows:    forms.UserDetail(*u),
			EditURL: "/users/" + strconv.FormatInt(id, 10) + "/edit",
		},
	})
}

func (s *Server) userNew(w http.ResponseWriter, r *http.Request) {
	s.renderUserCreate(w, r, http.StatusOK, forms.NewUserCreateForm(), nil, nil)
}

func (s *Server) userCreate(w http.ResponseWriter, r *http.Request) {
	f := forms.NewUserCreateForm()
	if !s.bind(w, r, f.Set, userCreateFields) {
		return
	}
	// An unchecked box is absent from the post.
	_ = f.Set("statut_abonnement", r.PostForm.Get("statut_abonnement"))

	out := f.Submit(r.Context(), s.api)
	if out.OK && f.ShowClientFields() {
		s.refs.Delete("clients")
	}
	s.settle(w, r, out, func(status int, fields map[string]string, fl *Flash) {
		s.renderUserCreate(w, r, status, f, fields, fl)
	})
}

func (s *Server) userEdit(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := forms.LoadUserEditForm(r.Context(), s.api, id)
	if err != nil {
		s.fail(w, r, statusFor(err), "Edit user", err)
		return
	}
	s.renderUserEdit(w, r, http.StatusOK, f, nil, nil)
}

func (s *Server) userUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	f, err := forms.LoadUserEditForm(r.Context(), s.api, id)
	if err != nil {
		s.fail(w, r, statusFor(err), "Edit user", err)
		return
	}
	if !s.bind(w, r, f.Set, userEditFields) {
		return
	}
	_ = f.Set("statut_abonnement", r.PostForm.Get("statut_abonnement"))

	out := f.Submit(r.Context(), s.api)
	if out.OK {
		s.refs.Delete("clients")
	}
	s.settle(w, r, out, func(status int, fields map[string]string, fl *Flash) {
		s.renderUserEdit(w, r, status, f, fields, fl)
	})
}

func (s *Server) renderUserCreate(w http.ResponseWriter, r *http.Request, status int, f *forms.UserCreateForm, fields map[string]string, fl *Flash) {
	plans, err := s.plans(r.Context())
	v := userFormView{
		Create:     f,
		Email:      f.Email,
		Name:       f.Name,
		Role:       f.Role,
		Client:     f.Client,
		ShowClient: f.ShowClientFields(),
		Fields:     fields,
		Plans:      plans,
		PlansErr:   err,
		Action:     "/users/new",
	}
	s.renderUserForm(w, r, status, "New user", v, fl)
}

func (s *Server) renderUserEdit(w http.ResponseWriter, r *http.Request, status int, f *forms.UserEditForm, fields map[string]string, fl *Flash) {
	v := userFormView{
		Edit:       f,
		Email:      f.Email,
		Name:       f.Name,
		Role:       f.Role,
		Client:     f.Client,
		ShowClient: f.ShowClientFields(),
		Fields:     fields,
		Plans:      f.Plans,
		PlansErr:   f.PlansErr,
		Action:     "/users/" + strconv.FormatInt(f.ID, 10) + "/edit",
	}
	s.renderUserForm(w, r, status, "Edit user "+strconv.FormatInt(f.ID, 10), v, fl)
}

func (s *Server) renderUserForm(w http.ResponseWriter, r *http.Request, status int, title string, v userFormView, fl *Flash) {
	p := page{Title: title, Section: "users", Data: v}
	if fl != nil {
		p.Flashes = []Flash{*fl}
	}
	s.render(w, r, status, "user_form", p)
}
