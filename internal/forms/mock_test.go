package forms

import (
	"context"

	"github.com/stretchr/testify/mock"

	"guardly-cli/pkg/models"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetCamera(ctx context.Context, id int64) (*models.Camera, error) {
	args := m.Called(ctx, id)
	cam, _ := args.Get(0).(*models.Camera)
	return cam, args.Error(1)
}

func (m *mockAPI) CreateCamera(ctx context.Context, in models.CameraInput) (*models.Camera, error) {
	args := m.Called(ctx, in)
	cam, _ := args.Get(0).(*models.Camera)
	return cam, args.Error(1)
}

func (m *mockAPI) UpdateCamera(ctx context.Context, id int64, in models.CameraInput) (*models.Camera, error) {
	args := m.Called(ctx, id, in)
	cam, _ := args.Get(0).(*models.Camera)
	return cam, args.Error(1)
}

func (m *mockAPI) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAPI) UpdateUser(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAPI) RegisterUser(ctx context.Context, in models.Registration) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAPI) CreateClient(ctx context.Context, in models.Client) (*models.Client, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*models.Client)
	return c, args.Error(1)
}

func (m *mockAPI) GetSubscriptionPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]models.SubscriptionPlan)
	return plans, args.Error(1)
}
