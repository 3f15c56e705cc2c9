package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardly-cli/pkg/models"
)

const testBase = "http://api.test"

func newTestClient(t *testing.T) *GuardlyClient {
	t.Helper()
	api := New(ClientConfig{
		BaseURL:      testBase,
		RetryCount:   2,
		RetryWait:    time.Millisecond,
		RetryMaxWait: 5 * time.Millisecond,
	})
	httpmock.ActivateNonDefault(api.HTTP.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return api
}

func jsonResponder(status int, body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}

func TestGetCameras(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/cameras",
		jsonResponder(200, `[{"id":1,"adresse_ip":"10.0.0.1","localisation":"Gate","statut":"active","modele":"X","fabricant":"Y","en_ligne":true},
			{"id":2,"adresse_ip":"10.0.0.2","localisation":"Dock","statut":"inactive","modele":"X","fabricant":"Y"}]`))

	cams, err := api.GetCameras(context.Background())
	require.NoError(t, err)
	require.Len(t, cams, 2)
	assert.Equal(t, "Gate", cams[0].Location)
	assert.True(t, cams[0].Online)
	assert.Equal(t, models.CameraInactive, cams[1].Status)
}

func TestGetCameras_StoredZonesNeverFailTheList(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/cameras",
		jsonResponder(200, `[{"id":1,"localisation":"Gate","zones_detection":{}},
			{"id":2,"localisation":"Dock","zones_detection":{"drawingData":[]}},
			{"id":3,"localisation":"Roof","zones_detection":{"shape":"rectangle","rect":{"x":0,"y":0,"width":4,"height":4},"time_range":[0,30]}}]`))

	cams, err := api.GetCameras(context.Background())
	require.NoError(t, err)
	require.Len(t, cams, 3)
	assert.False(t, cams[0].HasZone())
	assert.False(t, cams[1].HasZone())
	require.True(t, cams[2].HasZone())
	assert.ErrorIs(t, cams[2].DetectionZone.Validate(), models.ErrInvalidTimeRange)
}

func TestGetCamera_NotFound(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/cameras/9", jsonResponder(404, `{"detail":"Camera not found"}`))

	_, err := api.GetCamera(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrServer)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "Camera not found")
}

func TestGetCamera_UnknownZoneShapeIsRejected(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/cameras/3",
		jsonResponder(200, `{"id":3,"zones_detection":{"shape":"ellipse"}}`))

	_, err := api.GetCamera(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownZoneShape)
}

func TestAPIError_StatusClasses(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{404, ErrNotFound},
		{409, ErrConflict},
		{400, ErrValidation},
		{422, ErrValidation},
		{503, ErrServer},
	}
	all := []error{ErrNotFound, ErrConflict, ErrValidation, ErrServer}
	for _, tt := range tests {
		err := error(&APIError{Op: "create camera", StatusCode: tt.status})
		for _, target := range all {
			assert.Equal(t, target == tt.want, errors.Is(err, target), "status %d vs %v", tt.status, target)
		}
	}
}

func TestRetry_TransientReadIsRetried(t *testing.T) {
	api := newTestClient(t)
	calls := 0
	httpmock.RegisterResponder("GET", testBase+"/users", func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(503, "unavailable"), nil
		}
		return jsonResponder(200, `[{"id":1,"nom":"Awa","email":"awa@example.com","role":"admin"}]`)(req)
	})

	users, err := api.GetUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustedReturnsServerError(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/clients", httpmock.NewStringResponder(500, "boom"))

	_, err := api.GetClients(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, 3, httpmock.GetCallCountInfo()["GET "+testBase+"/clients"])
}

func TestRetry_WritesAreNotRepeated(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/register", httpmock.NewStringResponder(503, "busy"))

	_, err := api.RegisterUser(context.Background(), models.Registration{Email: "a@b.c", Name: "A", Password: "secret1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, 1, httpmock.GetCallCountInfo()["POST "+testBase+"/register"])
}

func TestUpdateCamera_SendsFullResource(t *testing.T) {
	api := newTestClient(t)
	var sent map[string]any
	httpmock.RegisterResponder("PUT", testBase+"/cameras/4", func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &sent)
		return jsonResponder(200, string(body))(req)
	})

	in := models.CameraInput{
		IPAddress:     "10.0.0.4",
		Location:      "Lobby",
		Status:        models.CameraActive,
		Model:         "M1",
		Manufacturer:  "Acme",
		DetectionZone: models.NewRectZone(models.Rect{X: 1, Y: 2, Width: 3, Height: 4}, models.TimeRange{7, 19}),
	}
	updated, err := api.UpdateCamera(context.Background(), 4, in)
	require.NoError(t, err)

	assert.Equal(t, "Lobby", sent["localisation"])
	assert.Equal(t, "Acme", sent["fabricant"])
	assert.Equal(t, "rectangle", sent["zones_detection"].(map[string]any)["shape"])
	require.True(t, updated.HasZone())
	assert.Equal(t, models.TimeRange{7, 19}, updated.DetectionZone.Hours)
}

func TestUpdateCameraZones_ValidatesFirst(t *testing.T) {
	api := newTestClient(t)

	err := api.UpdateCameraZones(context.Background(), 1, models.DetectionZone{Shape: models.ShapeRectangle, Rect: &models.Rect{}})
	assert.ErrorIs(t, err, models.ErrInvalidZone)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestGetSubscriptionPlans(t *testing.T) {
	api := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/subscription-plans",
		jsonResponder(200, `[{"id":"basic","nom":"Basic","prix_mensuel":5000}]`))

	plans, err := api.GetSubscriptionPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.InDelta(t, 5000, plans[0].MonthlyPrice, 0.001)
}

func TestLiveURL(t *testing.T) {
	tests := []struct {
		base, ws, want string
	}{
		{"http://127.0.0.1:8000", "", "ws://127.0.0.1:8000/camera/5/live"},
		{"https://api.example.com/", "", "wss://api.example.com/camera/5/live"},
		{"http://api", "ws://stream.example.com/v1", "ws://stream.example.com/v1/camera/5/live"},
	}
	for _, tt := range tests {
		api := New(ClientConfig{BaseURL: tt.base, WSURL: tt.ws})
		got, err := api.LiveURL(5)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	api := New(ClientConfig{BaseURL: "ftp://nope"})
	_, err := api.LiveURL(1)
	assert.Error(t, err)
}
