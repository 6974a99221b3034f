package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is owned by the group management part of the school system; chat only reads it.
type Group struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id"`
	Name      string               `json:"name" bson:"name"`
	Teachers  []primitive.ObjectID `json:"teachers" bson:"teachers"`
	Teacher   primitive.ObjectID   `json:"teacher,omitempty" bson:"teacher,omitempty"`
	Room      string               `json:"room" bson:"room"`
	DayOfWeek string               `json:"dayOfWeek" bson:"dayOfWeek"`
	Time      string               `json:"time" bson:"time"`
	IsActive  bool                 `json:"isActive" bson:"isActive"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

// GroupProfile is the part of a group shown in chat lists.
type GroupProfile struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Room      string             `json:"room"`
	DayOfWeek string             `json:"dayOfWeek"`
	Time      string             `json:"time"`
}

// TeacherIDs returns the teacher set including the legacy single teacher field.
func (g *Group) TeacherIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(g.Teachers)+1)
	seen := make(map[primitive.ObjectID]bool, len(g.Teachers)+1)
	for _, id := range g.Teachers {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if !g.Teacher.IsZero() && !seen[g.Teacher] {
		ids = append(ids, g.Teacher)
	}
	return ids
}

func (g *Group) HasTeacher(id primitive.ObjectID) bool {
	for _, t := range g.TeacherIDs() {
		if t == id {
			return true
		}
	}
	return false
}

func (g *Group) Profile() GroupProfile {
	return GroupProfile{
		ID:        g.ID,
		Name:      g.Name,
		Room:      g.Room,
		DayOfWeek: g.DayOfWeek,
		Time:      g.Time,
	}
}
