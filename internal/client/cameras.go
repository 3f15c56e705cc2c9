package client

import (
	"context"
	"strconv"

	"guardly-cli/pkg/models"
)

func (c *GuardlyClient) GetCameras(ctx context.Context) ([]models.Camera, error) {
	var cameras []models.Camera

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetResult(&cameras).
		Get("/cameras")

	if err := check("get cameras", resp, err); err != nil {
		return nil, err
	}
	return cameras, nil
}

func (c *GuardlyClient) GetCamera(ctx context.Context, id int64) (*models.Camera, error) {
	var cam models.Camera

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&cam).
		Get("/cameras/{id}")

	if err := check("get camera "+strconv.FormatInt(id, 10), resp, err); err != nil {
		return nil, err
	}
	return &cam, nil
}

// CreateCamera registers a new camera and returns it as stored by the backend.
func (c *GuardlyClient) CreateCamera(ctx context.Context, in models.CameraInput) (*models.Camera, error) {
	var created models.Camera

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&created).
		Post("/cameras")

	if err := check("create camera", resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCamera replaces the full camera resource. Fields left zero in the input are
// overwritten server-side, so build the input from a freshly fetched camera.
func (c *GuardlyClient) UpdateCamera(ctx context.Context, id int64, in models.CameraInput) (*models.Camera, error) {
	var updated models.Camera

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(in).
		SetResult(&updated).
		Put("/cameras/{id}")

	if err := check("update camera "+strconv.FormatInt(id, 10), resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetCameraZones reads the detection zone through the dedicated zones endpoint.
// A camera without a zone yields a zone with ShapeNone.
func (c *GuardlyClient) GetCameraZones(ctx context.Context, id int64) (*models.DetectionZone, error) {
	var zone models.DetectionZone

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&zone).
		Get("/cameras/{id}/zones")

	if err := check("get zones of camera "+strconv.FormatInt(id, 10), resp, err); err != nil {
		return nil, err
	}
	return &zone, nil
}

// UpdateCameraZones writes only the detection zone, leaving the rest of the camera alone.
func (c *GuardlyClient) UpdateCameraZones(ctx context.Context, id int64, zone models.DetectionZone) error {
	if err := zone.Validate(); err != nil {
		return err
	}

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(zone).
		Put("/cameras/{id}/zones")

	return check("update zones of camera "+strconv.FormatInt(id, 10), resp, err)
}
