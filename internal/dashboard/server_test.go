package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardly-cli/internal/client"
	"guardly-cli/internal/livefeed"
	"guardly-cli/internal/logging"
	"guardly-cli/pkg/models"
)

// fakeAPI is an in-memory backend.
type fakeAPI struct {
	mu      sync.Mutex
	cameras map[int64]models.Camera
	users   map[int64]models.User
	clients []models.Client
	plans   []models.SubscriptionPlan
	nextID  int64
	liveURL   string
	listErr   error
	createErr error

	registered []models.Registration
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{
		cameras: make(map[int64]models.Camera),
		users:   make(map[int64]models.User),
		plans:   []models.SubscriptionPlan{{ID: "basic", Name: "Basic", MonthlyPrice: 5000}},
		nextID:  100,
	}
	locations := []string{"Gate", "Dock", "Lobby", "Parking", "Roof", "Yard", "Gate B", "Hall", "Stairs", "Office", "Garage", "Gate C"}
	for i, loc := range locations {
		id := int64(i + 1)
		api.cameras[id] = models.Camera{
			ID: id, ClientID: 1, Location: loc, IPAddress: fmt.Sprintf("10.0.0.%d", id),
			Status: models.CameraActive, Model: "M", Manufacturer: "F",
		}
	}
	api.users[1] = models.User{ID: 1, Name: "Awa", Email: "awa@example.com", Role: models.RoleAdmin}
	api.users[2] = models.User{ID: 2, Name: "Corp", Email: "corp@example.com", Role: models.RoleClient,
		Client: &models.Client{ID: 1, UserID: 2, CompanyName: "Corp SA", Address: "Dakar", Latitude: 14.7, Longitude: -17.4,
			PlanID: "basic", SubscriptionStatus: models.SubscriptionActive}}
	api.clients = []models.Client{*api.users[2].Client}
	return api
}

func (f *fakeAPI) GetCameras(context.Context) ([]models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Camera, 0, len(f.cameras))
	for _, c := range f.cameras {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAPI) GetCamera(_ context.Context, id int64) (*models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cameras[id]
	if !ok {
		return nil, &client.APIError{Op: "get camera", StatusCode: 404, Body: "Camera not found"}
	}
	return &c, nil
}

func (f *fakeAPI) failCreate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *fakeAPI) CreateCamera(_ context.Context, in models.CameraInput) (*models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	c := models.Camera{ID: f.nextID, ClientID: in.ClientID, IPAddress: in.IPAddress, Location: in.Location,
		Status: in.Status, Model: in.Model, Manufacturer: in.Manufacturer, DetectionZone: in.DetectionZone}
	f.cameras[c.ID] = c
	return &c, nil
}

func (f *fakeAPI) UpdateCamera(_ context.Context, id int64, in models.CameraInput) (*models.Camera, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := models.Camera{ID: id, ClientID: in.ClientID, IPAddress: in.IPAddress, Location: in.Location,
		Status: in.Status, Model: in.Model, Manufacturer: in.Manufacturer, DetectionZone: in.DetectionZone,
		CapturedImage: in.CapturedImage}
	f.cameras[id] = c
	return &c, nil
}

func (f *fakeAPI) GetUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAPI) GetUser(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, &client.APIError{Op: "get user", StatusCode: 404}
	}
	return &u, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{ID: id, Email: in.Email, Name: in.Name, Role: in.Role, IsClient: in.IsClient, Client: in.Client}
	f.users[id] = u
	return &u, nil
}

func (f *fakeAPI) RegisterUser(_ context.Context, in models.Registration) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.registered = append(f.registered, in)
	u := models.User{ID: f.nextID, Email: in.Email, Name: in.Name, Role: in.Role}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeAPI) CreateClient(_ context.Context, in models.Client) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in.ID = int64(len(f.clients) + 1)
	f.clients = append(f.clients, in)
	return &in, nil
}

func (f *fakeAPI) GetClients(context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Client(nil), f.clients...), nil
}

func (f *fakeAPI) GetSubscriptionPlans(context.Context) ([]models.SubscriptionPlan, error) {
	return f.plans, nil
}

func (f *fakeAPI) LiveURL(id int64) (string, error) {
	if f.liveURL == "" {
		return "", fmt.Errorf("no live endpoint")
	}
	return fmt.Sprintf("%s/camera/%d/live", f.liveURL, id), nil
}

type harness struct {
	api    *fakeAPI
	srv    *Server
	http   *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := newFakeAPI()
	srv, err := New(Config{
		API:           api,
		SessionSecret: "test-secret-test-secret-test-sec",
		Feed: livefeed.Options{
			BackoffInitial: 10 * time.Millisecond,
			BackoffMax:     20 * time.Millisecond,
			MaxAttempts:    2,
		},
		Logger: logging.Discard(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &harness{api: api, srv: srv, http: ts, client: &http.Client{Jar: jar}}
}

func (h *harness) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := h.client.Get(h.http.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.http.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestCameraList_FilterAndPadding(t *testing.T) {
	h := newHarness(t)

	status, body := h.get(t, "/cameras?q=GATE")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Gate B")
	assert.Contains(t, body, "Gate C")
	assert.NotContains(t, body, "Parking")
	assert.Contains(t, body, "3 result(s)")

	status, body = h.get(t, "/cameras?page=2&size=5")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Garage")
	assert.Equal(t, 3, strings.Count(body, `class="pad"`))
}

func TestCameraList_ReadFailureShowsRetry(t *testing.T) {
	h := newHarness(t)
	h.api.listErr = &client.APIError{Op: "get cameras", StatusCode: 503, Body: "maintenance"}

	status, body := h.get(t, "/cameras")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body, "Could not load the list")
	assert.Contains(t, body, "Retry")
}

func TestCameraCreate_BackendRejection(t *testing.T) {
	h := newHarness(t)
	h.api.failCreate(&client.APIError{Op: "create camera", StatusCode: http.StatusConflict, Body: "IP already in use"})
	form := url.Values{
		"client_id": {"1"}, "adresse_ip": {"10.1.1.1"}, "localisation": {"Attic"},
		"modele": {"X"}, "fabricant": {"Y"},
	}

	status, body := h.post(t, "/cameras/new", form)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body, "IP already in use")
	assert.Contains(t, body, "Attic", "the form keeps what was typed")

	h.api.failCreate(&client.APIError{Op: "create camera", StatusCode: http.StatusUnprocessableEntity})
	status, _ = h.post(t, "/cameras/new", form)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	h.api.failCreate(&client.APIError{Op: "create camera", StatusCode: http.StatusServiceUnavailable})
	status, _ = h.post(t, "/cameras/new", form)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestCameraCreate(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/cameras/new", url.Values{"client_id": {"1"}, "localisation": {"Attic"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "IP address is required")
	assert.Contains(t, body, "Attic")

	status, body = h.post(t, "/cameras/new", url.Values{
		"client_id": {"1"}, "adresse_ip": {"10.1.1.1"}, "localisation": {"Attic"},
		"modele": {"X"}, "fabricant": {"Y"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Camera 101 created")

	// The banner is shown once.
	_, body = h.get(t, "/cameras")
	assert.NotContains(t, body, "Camera 101 created")
}

func TestCameraEditKeepsZone(t *testing.T) {
	h := newHarness(t)
	cam := h.api.cameras[3]
	cam.DetectionZone = models.NewRectZone(models.Rect{X: 1, Y: 1, Width: 4, Height: 4}, models.TimeRange{8, 18})
	h.api.cameras[3] = cam

	status, body := h.get(t, "/cameras/3/edit")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="Lobby"`)

	status, _ = h.post(t, "/cameras/3/edit", url.Values{
		"client_id": {"1"}, "adresse_ip": {"10.0.0.3"}, "localisation": {"Main lobby"},
		"statut": {"inactive"}, "modele": {"M"}, "fabricant": {"F"},
	})
	assert.Equal(t, http.StatusOK, status)
	updated := h.api.cameras[3]
	assert.Equal(t, "Main lobby", updated.Location)
	assert.Equal(t, models.CameraInactive, updated.Status)
	require.True(t, updated.HasZone())
	assert.Equal(t, models.TimeRange{8, 18}, updated.DetectionZone.Hours)
}

func TestCameraDetail(t *testing.T) {
	h := newHarness(t)

	status, body := h.get(t, "/cameras/4")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Parking")
	assert.Contains(t, body, "/cameras/4/config")

	status, body = h.get(t, "/cameras/999")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Camera not found")
}

func TestUserCreate_Client(t *testing.T) {
	h := newHarness(t)

	status, body := h.post(t, "/users/new", url.Values{
		"email": {"new@corp.sn"}, "nom": {"New"}, "mot_de_passe": {"secret1"}, "role": {"client"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Company name is required")

	status, body = h.post(t, "/users/new", url.Values{
		"email": {"new@corp.sn"}, "nom": {"New"}, "mot_de_passe": {"secret1"}, "role": {"client"},
		"nom_entreprise": {"New SA"}, "adresse": {"Thiès"}, "latitude": {"14.79"}, "longitude": {"-16.93"},
		"plan_abonnement_id": {"basic"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "User 101 created")

	require.Len(t, h.api.clients, 2)
	created := h.api.clients[1]
	assert.Equal(t, int64(101), created.UserID)
	assert.Equal(t, models.SubscriptionInactive, created.SubscriptionStatus, "unchecked box means inactive")
}

func TestUserCreate_ShortPassword(t *testing.T) {
	h := newHarness(t)
	status, body := h.post(t, "/users/new", url.Values{
		"email": {"a@b.c"}, "nom": {"A"}, "mot_de_passe": {"123"}, "role": {"admin"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Password must be at least 6 characters")
	assert.Empty(t, h.api.registered)
}

func TestUserEdit_ClientFieldsFollowRole(t *testing.T) {
	h := newHarness(t)

	_, body := h.get(t, "/users/2/edit")
	assert.Contains(t, body, `<fieldset id="client" >`)
	assert.Contains(t, body, `value="Corp SA"`)

	_, body = h.get(t, "/users/1/edit")
	assert.Contains(t, body, `<fieldset id="client" hidden>`)

	status, _ := h.post(t, "/users/2/edit", url.Values{
		"email": {"corp@example.com"}, "nom": {"Corp"}, "role": {"admin"},
	})
	assert.Equal(t, http.StatusOK, status)
	u := h.api.users[2]
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.False(t, u.IsClient)
	assert.Nil(t, u.Client)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	status, body := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, body = h.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "guardly_up 1")
	assert.Contains(t, body, `guardly_cameras_total{status="active"} 12`)
}

// cameraStub serves /camera/{id}/live and writes whatever is queued on frames.
func cameraStub(t *testing.T, frames chan []byte) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case f := <-frames:
				if err := conn.WriteMessage(websocket.BinaryMessage, f); err != nil {
					return
				}
			case <-gone:
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func testJPEG(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 100)), nil))
	return buf.Bytes()
}

func TestLiveSocketRelaysFrames(t *testing.T) {
	h := newHarness(t)
	frames := make(chan []byte)
	h.api.liveURL = wsURL(cameraStub(t, frames).URL)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(h.http.URL)+"/cameras/1/live/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	go func() { frames <- []byte("jpeg-bytes") }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.BinaryMessage {
			assert.Equal(t, []byte("jpeg-bytes"), data)
			return
		}
	}
}

func TestZoneConfiguratorFlow(t *testing.T) {
	h := newHarness(t)
	frames := make(chan []byte, 1)
	h.api.liveURL = wsURL(cameraStub(t, frames).URL)

	status, body := h.get(t, "/cameras/5/config")
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body, "Capture still")
	require.Equal(t, 1, h.srv.configs.count())

	var cs *configSession
	for _, item := range h.srv.configs.items.Items() {
		cs = item.Object.(*configSession)
	}
	frames <- testJPEG(t)
	require.Eventually(t, func() bool { return cs.feed.LastFrame() != nil }, 3*time.Second, 10*time.Millisecond)

	status, body = h.post(t, "/cameras/5/config", url.Values{"action": {"capture"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Still captured")
	assert.Contains(t, body, `width="100"`)
	assert.True(t, cs.feed.Frozen())

	resp, err := h.client.Get(h.http.URL + "/cameras/5/config/still.png")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	status, body = h.post(t, "/cameras/5/config", url.Values{
		"action": {"save"}, "x": {"80"}, "y": {"10"}, "width": {"40"}, "height": {"20"}, "start": {"8"}, "end": {"18"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "outside the still")

	status, body = h.post(t, "/cameras/5/config", url.Values{
		"action": {"save"}, "x": {"10"}, "y": {"10"}, "width": {"40"}, "height": {"20"}, "start": {"8"}, "end": {"18"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Detection zone saved")

	saved := h.api.cameras[5]
	require.True(t, saved.HasZone())
	assert.Equal(t, models.Rect{X: 10, Y: 10, Width: 40, Height: 20}, *saved.DetectionZone.Rect)
	assert.Equal(t, models.TimeRange{8, 18}, saved.DetectionZone.Hours)
	assert.Equal(t, "Roof", saved.Location)
	assert.NotEmpty(t, saved.CapturedImage)

	assert.Zero(t, h.srv.configs.count())
	assert.Equal(t, livefeed.StateClosed, cs.feed.State())

	// The browser's cookie no longer points at the dropped session.
	req := httptest.NewRequest(http.MethodGet, h.http.URL+"/", nil)
	for _, c := range h.client.Jar.Cookies(req.URL) {
		req.AddCookie(c)
	}
	session, err := h.srv.sessions.Get(req, sessionName)
	require.NoError(t, err)
	assert.NotContains(t, session.Values, configKey(5))
}

func TestConfigAction_ExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.api.liveURL = wsURL(cameraStub(t, make(chan []byte)).URL)
	status, body := h.post(t, "/cameras/5/config", url.Values{"action": {"capture"}})
	// Redirected to the page, which opens a fresh session and shows the warning.
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "session expired")
}
