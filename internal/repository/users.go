// users.go
package repository

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"water-delivery-backend/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: db.Collection("Users")}
}

// FindByLogin looks a user up by user_id or email. Emails are also
// tried lowercased; old records are inconsistent about casing.
func (m *MongoUserRepository) FindByLogin(ctx context.Context, userIDOrEmail string) (*model.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"user_id": userIDOrEmail},
		bson.M{"email": userIDOrEmail},
		bson.M{"email": strings.ToLower(userIDOrEmail)},
	}}
	var u model.User
	err := m.col.FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoUserRepository) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := m.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *MongoUserRepository) UpdateByUserID(ctx context.Context, userID string, set bson.M) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
