package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateUser inserts a new user. A duplicate email yields storage.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.mongo.CreateUser"

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Budgets == nil {
		user.Budgets = []models.Budget{}
	}
	user.Email = storage.NormalizeEmail(user.Email)
	ts := now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = ts
	}
	user.UpdatedAt = ts

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

// UserByID retrieves a single user by their ID.
func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

// UserByEmail retrieves a single user by their email, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, bson.M{"email": storage.NormalizeEmail(email)})
}

// UpdateProfile updates a user's name and email.
func (s *Store) UpdateProfile(ctx context.Context, id, name, email string) (models.User, error) {
	const op = "storage.mongo.UpdateProfile"

	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":      name,
		"email":     storage.NormalizeEmail(email),
		"updatedAt": now(),
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := matchedOrNotFound(res); err != nil {
		return models.User{}, err
	}
	return s.UserByID(ctx, id)
}

// UpdateBudgets replaces the user's whole budget list.
func (s *Store) UpdateBudgets(ctx context.Context, id string, budgets []models.Budget) ([]models.Budget, error) {
	if budgets == nil {
		budgets = []models.Budget{}
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"budgets":   budgets,
		"updatedAt": now(),
	}})
	if err != nil {
		return nil, fmt.Errorf("storage.mongo.UpdateBudgets: %w", err)
	}
	if err := matchedOrNotFound(res); err != nil {
		return nil, err
	}
	return budgets, nil
}

// SetResetToken stores a pending reset token, replacing any previous one.
func (s *Store) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"resetToken":          token,
		"resetTokenExpiresAt": expiresAt.UTC(),
		"updatedAt":           now(),
	}})
	if err != nil {
		return fmt.Errorf("storage.mongo.SetResetToken: %w", err)
	}
	return matchedOrNotFound(res)
}

var unsetReset = bson.M{"resetToken": "", "resetTokenExpiresAt": ""}

// ClearResetToken removes the pending reset token, if any.
func (s *Store) ClearResetToken(ctx context.Context, id string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": unsetReset,
		"$set":   bson.M{"updatedAt": now()},
	})
	if err != nil {
		return fmt.Errorf("storage.mongo.ClearResetToken: %w", err)
	}
	return matchedOrNotFound(res)
}

// ConsumeResetToken sets a new password hash if token is still the pending one.
func (s *Store) ConsumeResetToken(ctx context.Context, id, token, passwordHash string, changedAt time.Time) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id, "resetToken": token}, bson.M{
		"$unset": unsetReset,
		"$set": bson.M{
			"passwordHash":      passwordHash,
			"passwordChangedAt": changedAt.UTC(),
			"updatedAt":         changedAt.UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("storage.mongo.ConsumeResetToken: %w", err)
	}
	return matchedOrNotFound(res)
}

// PurgeExpiredResetTokens clears every reset token that expired before now.
func (s *Store) PurgeExpiredResetTokens(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.users.UpdateMany(ctx,
		bson.M{"resetTokenExpiresAt": bson.M{"$lt": at.UTC()}},
		bson.M{"$unset": unsetReset})
	if err != nil {
		return 0, fmt.Errorf("storage.mongo.PurgeExpiredResetTokens: %w", err)
	}
	return res.ModifiedCount, nil
}

// LinkGoogleAccount records subject on the user unless an account is already linked.
func (s *Store) LinkGoogleAccount(ctx context.Context, id, subject string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id, "googleId": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"googleId": subject, "updatedAt": now()}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("storage.mongo.LinkGoogleAccount: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = s.UserByID(ctx, id)
	return err
}
