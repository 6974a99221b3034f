package repository

import (
	"context"
	"fmt"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoDB) GetUserByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error) {
	return m.findUser(ctx, bson.D{{"_id", id}})
}

func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.findUser(ctx, bson.D{{"username", username}})
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.D) (*entity.User, error) {
	var user entity.User
	err := m.collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return m.findUsers(ctx, bson.D{{"_id", bson.D{{"$in", ids}}}}, nil)
}

// GetAdmins returns active admins.
func (m *MongoDB) GetAdmins(ctx context.Context) ([]entity.User, error) {
	filter := bson.D{
		{"role", entity.AdminRole},
		{"isActive", bson.D{{"$ne", false}}},
	}
	return m.findUsers(ctx, filter, nil)
}

// GetActiveUsersExcept returns users available for a new direct chat, sorted by name.
func (m *MongoDB) GetActiveUsersExcept(ctx context.Context, id primitive.ObjectID) ([]entity.User, error) {
	filter := bson.D{
		{"_id", bson.D{{"$ne", id}}},
		{"isActive", bson.D{{"$ne", false}}},
	}
	opts := options.Find().
		SetSort(bson.D{{"name", 1}}).
		SetProjection(bson.D{{"password", 0}})
	return m.findUsers(ctx, filter, opts)
}

func (m *MongoDB) findUsers(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]entity.User, error) {
	if opts == nil {
		opts = options.Find()
	}
	cursor, err := m.collection(usersCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("mongodb decode users: %w", err)
	}
	return users, nil
}

func (m *MongoDB) CreateUser(ctx context.Context, user *entity.User) error {
	_, err := m.collection(usersCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: username %s is taken", entity.ErrValidation, user.Username)
		}
		return fmt.Errorf("mongodb insert user: %w", err)
	}
	return nil
}

func (m *MongoDB) CountUsers(ctx context.Context) (int64, error) {
	count, err := m.collection(usersCollection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb count users: %w", err)
	}
	return count, nil
}
