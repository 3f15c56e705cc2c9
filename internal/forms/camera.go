package forms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"guardly-cli/pkg/models"
)

// CameraAPI is the slice of the REST client the camera editor needs.
type CameraAPI interface {
	GetCamera(ctx context.Context, id int64) (*models.Camera, error)
	CreateCamera(ctx context.Context, in models.CameraInput) (*models.Camera, error)
	UpdateCamera(ctx context.Context, id int64, in models.CameraInput) (*models.Camera, error)
}

var cameraLabels = map[string]string{
	"client_id":    "Client",
	"adresse_ip":   "IP address",
	"localisation": "Location",
	"statut":       "Status",
	"modele":       "Model",
	"fabricant":    "Manufacturer",
}

// CameraForm is the create/edit camera editor. ID is zero while creating.
type CameraForm struct {
	ID           int64  `json:"-"`
	ClientID     string `json:"client_id" validate:"required,numeric"`
	IPAddress    string `json:"adresse_ip" validate:"required"`
	Location     string `json:"localisation" validate:"required"`
	Status       string `json:"statut"`
	Model        string `json:"modele" validate:"required"`
	Manufacturer string `json:"fabricant" validate:"required"`
}

// NewCameraForm returns an empty create form; new cameras start active.
func NewCameraForm() *CameraForm {
	return &CameraForm{Status: string(models.CameraActive)}
}

// LoadCameraForm fills an edit form from the stored camera.
func LoadCameraForm(ctx context.Context, api CameraAPI, id int64) (*CameraForm, error) {
	cam, err := api.GetCamera(ctx, id)
	if err != nil {
		return nil, err
	}
	f := &CameraForm{
		ID:           cam.ID,
		IPAddress:    cam.IPAddress,
		Location:     cam.Location,
		Status:       string(cam.Status),
		Model:        cam.Model,
		Manufacturer: cam.Manufacturer,
	}
	if cam.ClientID != 0 {
		f.ClientID = strconv.FormatInt(cam.ClientID, 10)
	}
	return f, nil
}

func (f *CameraForm) Editing() bool { return f.ID != 0 }

// Set assigns a field by wire name, the way a submitted HTML form or CLI flag arrives.
func (f *CameraForm) Set(name, value string) error {
	switch name {
	case "client_id":
		f.ClientID = strings.TrimSpace(value)
	case "adresse_ip":
		f.IPAddress = strings.TrimSpace(value)
	case "localisation":
		f.Location = value
	case "statut":
		f.Status = value
	case "modele":
		f.Model = value
	case "fabricant":
		f.Manufacturer = value
	default:
		return fmt.Errorf("unknown camera field %q", name)
	}
	return nil
}

// Validate returns one message per missing field, or nil.
func (f *CameraForm) Validate() map[string]string {
	return check(f, cameraLabels)
}

func (f *CameraForm) apply(in *models.CameraInput) {
	in.ClientID, _ = strconv.ParseInt(f.ClientID, 10, 64)
	in.IPAddress = f.IPAddress
	in.Location = f.Location
	in.Status = models.CameraStatus(f.Status)
	if in.Status == "" {
		in.Status = models.CameraActive
	}
	in.Model = f.Model
	in.Manufacturer = f.Manufacturer
}

// Submit validates, then creates or updates the camera.
// Updates re-fetch the camera first and only overwrite the editor's fields, so a
// detection zone saved meanwhile by the configurator is kept.
func (f *CameraForm) Submit(ctx context.Context, api CameraAPI) Outcome {
	if fields := f.Validate(); fields != nil {
		return invalid(fields)
	}

	if !f.Editing() {
		in := models.CameraInput{DetectionZone: &models.DetectionZone{}}
		f.apply(&in)
		created, err := api.CreateCamera(ctx, in)
		if err != nil {
			return failed("An error occurred while creating the camera", err)
		}
		return Outcome{OK: true, Message: fmt.Sprintf("Camera %d created", created.ID), Redirect: "/cameras"}
	}

	current, err := api.GetCamera(ctx, f.ID)
	if err != nil {
		return failed("An error occurred while loading the camera", err)
	}
	in := current.Input()
	f.apply(&in)
	if _, err := api.UpdateCamera(ctx, f.ID, in); err != nil {
		return failed("An error occurred while updating the camera", err)
	}
	return Outcome{OK: true, Message: fmt.Sprintf("Camera %d updated", f.ID), Redirect: "/cameras"}
}
