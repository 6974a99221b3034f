package repository

import (
	"context"
	"fmt"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *MongoDB) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*entity.Group, error) {
	var group entity.Group
	err := m.collection(groupsCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&group)
	if err != nil {
		return nil, m.findError(err)
	}
	return &group, nil
}

func (m *MongoDB) GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return m.findGroups(ctx, bson.D{{"_id", bson.D{{"$in", ids}}}})
}

// GetGroupsByTeacher returns groups listing the teacher in teachers or in the legacy teacher field.
func (m *MongoDB) GetGroupsByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]entity.Group, error) {
	filter := bson.D{{"$or", bson.A{
		bson.D{{"teachers", teacherID}},
		bson.D{{"teacher", teacherID}},
	}}}
	return m.findGroups(ctx, filter)
}

func (m *MongoDB) findGroups(ctx context.Context, filter bson.D) ([]entity.Group, error) {
	cursor, err := m.collection(groupsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find groups: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []entity.Group
	if err = cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("mongodb decode groups: %w", err)
	}
	return groups, nil
}
