package models

import "time"

// Event represents a loggable account action, e.g. a login failure or a password reset.
type Event struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Type      string    `json:"type" bson:"type"`   // e.g., "auth.login", "auth.password.reset"
	Level     string    `json:"level" bson:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
