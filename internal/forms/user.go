package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"guardly-cli/pkg/models"
)

// UserAPI is the slice of the REST client the user editors need.
type UserAPI interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error)
	RegisterUser(ctx context.Context, in models.Registration) (*models.User, error)
	CreateClient(ctx context.Context, in models.Client) (*models.Client, error)
	GetSubscriptionPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
}

// MinPasswordLength is enforced on account creation.
const MinPasswordLength = 6

var userLabels = map[string]string{
	"email":              "Email",
	"nom":                "Name",
	"mot_de_passe":       "Password",
	"role":               "Role",
	"nom_entreprise":     "Company name",
	"adresse":            "Address",
	"latitude":           "Latitude",
	"longitude":          "Longitude",
	"plan_abonnement_id": "Subscription plan",
}

// ClientFields is the company profile part shared by both user editors.
// Its required rules only apply when the parent's Role is client.
type ClientFields struct {
	CompanyName        string `json:"nom_entreprise"`
	Address            string `json:"adresse"`
	Latitude           string `json:"latitude"`
	Longitude          string `json:"longitude"`
	PlanID             string `json:"plan_abonnement_id"`
	SubscriptionActive bool   `json:"statut_abonnement"`
}

func (c *ClientFields) set(name, value string) bool {
	switch name {
	case "nom_entreprise":
		c.CompanyName = value
	case "adresse":
		c.Address = value
	case "latitude":
		c.Latitude = strings.TrimSpace(value)
	case "longitude":
		c.Longitude = strings.TrimSpace(value)
	case "plan_abonnement_id":
		c.PlanID = value
	case "statut_abonnement":
		c.SubscriptionActive = value == "on" || value == "true" || value == models.SubscriptionActive
	default:
		return false
	}
	return true
}

// validate applies the client-only rules. Coordinates must parse and lie on the globe.
func (c *ClientFields) validate(fields map[string]string) map[string]string {
	required := map[string]string{
		"nom_entreprise":     c.CompanyName,
		"adresse":            c.Address,
		"latitude":           c.Latitude,
		"longitude":          c.Longitude,
		"plan_abonnement_id": c.PlanID,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields = merge(fields, name, userLabels[name]+" is required")
		}
	}
	if c.Latitude != "" {
		if lat, err := strconv.ParseFloat(c.Latitude, 64); err != nil || lat < -90 || lat > 90 {
			fields = merge(fields, "latitude", "Latitude must be a number between -90 and 90")
		}
	}
	if c.Longitude != "" {
		if lng, err := strconv.ParseFloat(c.Longitude, 64); err != nil || lng < -180 || lng > 180 {
			fields = merge(fields, "longitude", "Longitude must be a number between -180 and 180")
		}
	}
	return fields
}

func (c *ClientFields) profile(userID int64) models.Client {
	lat, _ := strconv.ParseFloat(c.Latitude, 64)
	lng, _ := strconv.ParseFloat(c.Longitude, 64)
	return models.Client{
		UserID:             userID,
		CompanyName:        c.CompanyName,
		Address:            c.Address,
		Latitude:           lat,
		Longitude:          lng,
		PlanID:             c.PlanID,
		SubscriptionStatus: models.SubscriptionStatusFor(c.SubscriptionActive),
	}
}

func (c *ClientFields) fill(cl *models.Client) {
	c.CompanyName = cl.CompanyName
	c.Address = cl.Address
	c.Latitude = strconv.FormatFloat(cl.Latitude, 'f', -1, 64)
	c.Longitude = strconv.FormatFloat(cl.Longitude, 'f', -1, 64)
	c.PlanID = cl.PlanID
	c.SubscriptionActive = cl.Active()
}

// UserCreateForm is the new-account editor.
type UserCreateForm struct {
	Email    string       `json:"email" validate:"required"`
	Name     string       `json:"nom" validate:"required"`
	Password string       `json:"mot_de_passe" validate:"required,min=6"`
	Role     models.Role  `json:"role" validate:"required,oneof=admin client"`
	Client   ClientFields `json:"-" validate:"-"`
}

// NewUserCreateForm starts as an admin account with an active subscription switch.
func NewUserCreateForm() *UserCreateForm {
	return &UserCreateForm{Role: models.RoleAdmin, Client: ClientFields{SubscriptionActive: true}}
}

// ShowClientFields derives from the currently selected role only.
func (f *UserCreateForm) ShowClientFields() bool { return f.Role == models.RoleClient }

func (f *UserCreateForm) Set(name, value string) error {
	switch name {
	case "email":
		f.Email = strings.TrimSpace(value)
	case "nom":
		f.Name = value
	case "mot_de_passe":
		f.Password = value
	case "role":
		f.Role = models.Role(value)
	default:
		if !f.Client.set(name, value) {
			return fmt.Errorf("unknown user field %q", name)
		}
	}
	return nil
}

func (f *UserCreateForm) Validate() map[string]string {
	fields := check(f, userLabels)
	if _, bad := fields["mot_de_passe"]; bad {
		fields["mot_de_passe"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	if f.ShowClientFields() {
		fields = f.Client.validate(fields)
	}
	return fields
}

// Submit registers the account, then creates the client profile for client accounts.
func (f *UserCreateForm) Submit(ctx context.Context, api UserAPI) Outcome {
	if fields := f.Validate(); fields != nil {
		return invalid(fields)
	}

	created, err := api.RegisterUser(ctx, models.Registration{
		Email:    f.Email,
		Name:     f.Name,
		Password: f.Password,
		Role:     f.Role,
	})
	if err != nil {
		return failed("An error occurred while creating the user", err)
	}

	if f.ShowClientFields() {
		if _, err := api.CreateClient(ctx, f.Client.profile(created.ID)); err != nil {
			return failed(fmt.Sprintf("User %d was created but its client profile could not be saved", created.ID), err)
		}
	}
	return Outcome{OK: true, Message: fmt.Sprintf("User %d created", created.ID), Redirect: "/users"}
}

// UserEditForm edits an existing account. The plan list is loaded alongside the user;
// a failure there leaves PlansErr set but the form usable.
type UserEditForm struct {
	ID     int64        `json:"-"`
	Email  string       `json:"email" validate:"required"`
	Name   string       `json:"nom" validate:"required"`
	Role   models.Role  `json:"role" validate:"required,oneof=admin client"`
	Client ClientFields `json:"-" validate:"-"`

	Plans    []models.SubscriptionPlan `json:"-" validate:"-"`
	PlansErr error                     `json:"-" validate:"-"`
}

// LoadUserEditForm fetches the user and the plans concurrently and pre-fills the form.
// The client fields are pre-filled from the fetched profile; whether they show is decided
// by Role alone.
func LoadUserEditForm(ctx context.Context, api UserAPI, id int64) (*UserEditForm, error) {
	var (
		user     *models.User
		plans    []models.SubscriptionPlan
		plansErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = api.GetUser(gctx, id)
		return err
	})
	g.Go(func() error {
		plans, plansErr = api.GetSubscriptionPlans(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := &UserEditForm{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Plans:    plans,
		PlansErr: plansErr,
		Client:   ClientFields{SubscriptionActive: true},
	}
	if user.Client != nil {
		f.Client.fill(user.Client)
	}
	return f, nil
}

func (f *UserEditForm) ShowClientFields() bool { return f.Role == models.RoleClient }

func (f *UserEditForm) Set(name, value string) error {
	switch name {
	case "email":
		f.Email = strings.TrimSpace(value)
	case "nom":
		f.Name = value
	case "role":
		f.Role = models.Role(value)
	default:
		if !f.Client.set(name, value) {
			return fmt.Errorf("unknown user field %q", name)
		}
	}
	return nil
}

func (f *UserEditForm) Validate() map[string]string {
	fields := check(f, userLabels)
	if f.ShowClientFields() {
		fields = f.Client.validate(fields)
	}
	return fields
}

// Update builds the PUT body. The client object is sent only for client accounts.
func (f *UserEditForm) Update() models.UserUpdate {
	u := models.UserUpdate{
		Email:    f.Email,
		Name:     f.Name,
		Role:     f.Role,
		IsClient: f.ShowClientFields(),
	}
	if u.IsClient {
		p := f.Client.profile(f.ID)
		u.Client = &p
	}
	return u
}

func (f *UserEditForm) Submit(ctx context.Context, api UserAPI) Outcome {
	if fields := f.Validate(); fields != nil {
		return invalid(fields)
	}
	if _, err := api.UpdateUser(ctx, f.ID, f.Update()); err != nil {
		return failed("An error occurred while updating the user", err)
	}
	return Outcome{OK: true, Message: fmt.Sprintf("User %d updated", f.ID), Redirect: "/users"}
}
