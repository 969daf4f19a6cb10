package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"water-delivery-backend/internal/model"
	"water-delivery-backend/internal/password"
)

type ProfileService struct {
	users UserRepository
}

func NewProfileService(users UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) Get(ctx context.Context, p model.Principal, userID string) (*model.User, error) {
	if !p.IsAdmin() && userID != p.UserID {
		return nil, &ForbiddenError{Detail: "Sadece kendi profilinizi gorebilirsiniz."}
	}
	user, err := s.users.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}

// Update applies freeform profile fields. _id and user_id are immutable,
// role only admins may set, and a supplied password is re-hashed into
// password_hash before it goes anywhere near the store.
func (s *ProfileService) Update(ctx context.Context, p model.Principal, userID string, updates map[string]any) (*model.User, error) {
	if len(updates) == 0 {
		return nil, invalid("updates payload zorunlu.")
	}
	if !p.IsAdmin() && userID != p.UserID {
		return nil, &ForbiddenError{Detail: "Sadece kendi profilinizi guncelleyebilirsiniz."}
	}

	set := bson.M{}
	for k, v := range updates {
		set[k] = v
	}
	delete(set, "_id")
	delete(set, "user_id")
	if !p.IsAdmin() {
		delete(set, "role")
	}
	if raw, ok := set["password"]; ok {
		if plain, _ := raw.(string); plain != "" {
			hashed, err := password.Hash(plain)
			if err != nil {
				return nil, err
			}
			set["password_hash"] = hashed
		}
		delete(set, "password")
	}
	set["updated_at"] = time.Now().UTC()

	if err := s.users.UpdateByUserID(ctx, userID, set); err != nil {
		return nil, mapRepoErr(err)
	}
	user, err := s.users.FindByUserID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}
