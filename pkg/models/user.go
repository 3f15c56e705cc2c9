package models

import "strings"

// Role decides which profile fields a user carries.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Subscription status values as the backend spells them.
const (
	SubscriptionActive   = "actif"
	SubscriptionInactive = "inactif"
)

// User represents an account as returned by GET /users/{id}.
// Client is non-nil only when Role is RoleClient.
type User struct {
	ID        int64   `json:"id"`
	Name      string  `json:"nom"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	IsClient  bool    `json:"is_client"`
	CreatedAt string  `json:"created_at,omitempty"` // ISO 8601, zone optional
	UpdatedAt string  `json:"updated_at,omitempty"`
	Client    *Client `json:"client,omitempty"`
}

// SearchText returns the lowercase fields the user directory filters on.
func (u User) SearchText() []string {
	return []string{strings.ToLower(u.Name), strings.ToLower(u.Email)}
}

// Client is the company profile attached to a user with the client role.
type Client struct {
	ID                 int64   `json:"id,omitempty"`
	UserID             int64   `json:"user_id,omitempty"`
	CompanyName        string  `json:"nom_entreprise"`
	Address            string  `json:"adresse"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	PlanID             string  `json:"plan_abonnement_id"`
	SubscriptionStatus string  `json:"statut_abonnement"` // actif|inactif
}

// Active reports whether the subscription is running.
func (c Client) Active() bool {
	return c.SubscriptionStatus == SubscriptionActive
}

// SubscriptionPlan is read-only reference data used to populate plan selectors.
type SubscriptionPlan struct {
	ID           string  `json:"id"`
	Name         string  `json:"nom"`
	MonthlyPrice float64 `json:"prix_mensuel"`
}

// Registration is the body for POST /register.
type Registration struct {
	Email    string `json:"email"`
	Name     string `json:"nom"`
	Password string `json:"mot_de_passe"`
	Role     Role   `json:"role"`
}

// UserUpdate is the body for PUT /users/{id}.
type UserUpdate struct {
	Email    string  `json:"email"`
	Name     string  `json:"nom"`
	Role     Role    `json:"role"`
	IsClient bool    `json:"is_client"`
	Client   *Client `json:"client,omitempty"`
}

// SubscriptionStatusFor maps the on/off switch of the editor to the backend value.
func SubscriptionStatusFor(active bool) string {
	if active {
		return SubscriptionActive
	}
	return SubscriptionInactive
}
