package client

import (
	"context"

	"guardly-cli/pkg/models"
)

func (c *GuardlyClient) GetClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetResult(&clients).
		Get("/clients")

	if err := check("get clients", resp, err); err != nil {
		return nil, err
	}
	return clients, nil
}

// CreateClient attaches a company profile to an existing user (in.UserID).
func (c *GuardlyClient) CreateClient(ctx context.Context, in models.Client) (*models.Client, error) {
	var created models.Client

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetBody(in).
		SetResult(&created).
		Post("/clients")

	if err := check("create client", resp, err); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetSubscriptionPlans lists the plans offered to client accounts.
func (c *GuardlyClient) GetSubscriptionPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan

	resp, err := c.HTTP.R().
		SetContext(ctx).
		SetResult(&plans).
		Get("/subscription-plans")

	if err := check("get subscription plans", resp, err); err != nil {
		return nil, err
	}
	return plans, nil
}
