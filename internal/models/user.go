package models

import "time"

// Budget is a monthly spending limit for a single category.
type Budget struct {
	Category string  `json:"category" bson:"category" validate:"required"`
	Amount   float64 `json:"amount" bson:"amount" validate:"gte=0"`
}

// User represents a user account in the system.
type User struct {
	ID                  string     `json:"id" bson:"_id"`
	Name                string     `json:"name" bson:"name"`
	Email               string     `json:"email" bson:"email"`
	PasswordHash        string     `json:"-" bson:"passwordHash"` // Never expose this to the client
	Budgets             []Budget   `json:"budgets" bson:"budgets"`
	Verified            bool       `json:"verified" bson:"verified"`
	ResetToken          *string    `json:"-" bson:"resetToken,omitempty"`
	ResetTokenExpiresAt *time.Time `json:"-" bson:"resetTokenExpiresAt,omitempty"`
	GoogleID            *string    `json:"-" bson:"googleId,omitempty"`
	PasswordChangedAt   *time.Time `json:"-" bson:"passwordChangedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// HasPendingReset reports whether a reset token is stored and still valid at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt)
}

// UserView is the public projection of a user returned by the API.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Budgets   []Budget  `json:"budgets"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// View strips credentials and reset state from the user.
func (u User) View() UserView {
	budgets := u.Budgets
	if budgets == nil {
		budgets = []Budget{}
	}
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Budgets:   budgets,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

// ExternalIdentity is the profile returned by a federated identity provider.
type ExternalIdentity struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}
