package client

import (
	"context"
	"strconv"

	"guardly-cli/pkg/models"
)

func (c *GuardlyClient) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetResult(&users).
		Get("/users")

	if err := check("get users", resp, err); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user, including the client profile when the role is client.
func (c *GuardlyClient) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&user).
		Get("/users/{id}")

	if err := check("get user "+strconv.FormatInt(id, 10), resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *GuardlyClient) UpdateUser(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error) {
	var updated models.User

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(in).
		SetResult(&updated).
		Put("/users/{id}")

	if err := check("update user "+strconv.FormatInt(id, 10), resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// RegisterUser creates the account. The client profile, if any, is a separate POST /clients.
func (c *GuardlyClient) RegisterUser(ctx context.Context, in models.Registration) (*models.User, error) {
	var created models.User

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&created).
		Post("/register")

	if err := check("register user", resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}
