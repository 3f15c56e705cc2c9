package models

import "strings"

// CameraStatus is the administrative state of a camera as stored by the backend.
type CameraStatus string

const (
	CameraActive   CameraStatus = "active"
	CameraInactive CameraStatus = "inactive"
)

// Known reports whether the status is one of the two states the backend defines.
// Anything else is still displayed as-is.
func (s CameraStatus) Known() bool {
	return s == CameraActive || s == CameraInactive
}

// Camera represents a single surveillance camera as returned by GET /cameras/{id}.
// JSON keys follow the backend schema, not the Go field names.
type Camera struct {
	ID            int64          `json:"id"`
	ClientID      int64          `json:"client_id,omitempty"`
	IPAddress     string         `json:"adresse_ip"`
	Location      string         `json:"localisation"`
	Status        CameraStatus   `json:"statut"`
	Model         string         `json:"modele"`
	Manufacturer  string         `json:"fabricant"`
	DetectionZone *DetectionZone `json:"zones_detection,omitempty"`
	CapturedImage string         `json:"captured_image,omitempty"` // PNG data URL
	Online        bool           `json:"en_ligne"`                 // derived by the backend
}

// HasZone reports whether a usable detection zone is attached to the camera.
func (c Camera) HasZone() bool {
	return c.DetectionZone != nil && c.DetectionZone.Shape != ShapeNone
}

// OnlineLabel renders the backend-derived connectivity flag.
func (c Camera) OnlineLabel() string {
	if c.Online {
		return "online"
	}
	return "offline"
}

// CameraInput is the body for POST /cameras and PUT /cameras/{id}.
// PUT replaces the full resource, so callers must start from a fetched camera.
type CameraInput struct {
	ClientID      int64          `json:"client_id,omitempty"`
	IPAddress     string         `json:"adresse_ip"`
	Location      string         `json:"localisation"`
	Status        CameraStatus   `json:"statut"`
	Model         string         `json:"modele"`
	Manufacturer  string         `json:"fabricant"`
	DetectionZone *DetectionZone `json:"zones_detection"`
	CapturedImage string         `json:"captured_image,omitempty"`
}

// Input converts a fetched camera into an update body carrying every editable field.
func (c Camera) Input() CameraInput {
	return CameraInput{
		ClientID:      c.ClientID,
		IPAddress:     c.IPAddress,
		Location:      c.Location,
		Status:        c.Status,
		Model:         c.Model,
		Manufacturer:  c.Manufacturer,
		DetectionZone: c.DetectionZone,
		CapturedImage: c.CapturedImage,
	}
}

// SearchText returns the lowercase fields the camera directory filters on.
func (c Camera) SearchText() []string {
	return []string{strings.ToLower(c.Location), strings.ToLower(c.IPAddress)}
}
