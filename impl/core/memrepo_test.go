package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memRepo mirrors the Mongo repository semantics: conversations are unique per key,
// appends assign increasing sequence numbers and markers only move forward.
// countFn, when set, replaces the own message count and may fail it.
type memRepo struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]entity.User
	groups   map[primitive.ObjectID]entity.Group
	convs    map[primitive.ObjectID]*entity.Conversation
	byKey    map[string]primitive.ObjectID
	markers  map[string]entity.ReadMarker
	creates  int
	appendFn func() error
	countFn  func() error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:   make(map[primitive.ObjectID]entity.User),
		groups:  make(map[primitive.ObjectID]entity.Group),
		convs:   make(map[primitive.ObjectID]*entity.Conversation),
		byKey:   make(map[string]primitive.ObjectID),
		markers: make(map[string]entity.ReadMarker),
	}
}

func (r *memRepo) addUser(name, role string) *entity.User {
	u := entity.NewUser(name, name, role)
	r.mu.Lock()
	r.users[u.ID] = *u
	r.mu.Unlock()
	return u
}

func (r *memRepo) addGroup(teachers ...primitive.ObjectID) *entity.Group {
	g := entity.Group{ID: primitive.NewObjectID(), Name: "Salsa", Teachers: teachers, Room: "A", DayOfWeek: "monday", Time: "18:00"}
	r.mu.Lock()
	r.groups[g.ID] = g
	r.mu.Unlock()
	return &g
}

func (r *memRepo) setTeachers(groupID primitive.ObjectID, teachers ...primitive.ObjectID) {
	r.mu.Lock()
	g := r.groups[groupID]
	g.Teachers = teachers
	r.groups[groupID] = g
	r.mu.Unlock()
}

func copyConv(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Participants = append([]primitive.ObjectID(nil), c.Participants...)
	cp.Messages = append([]entity.Message(nil), c.Messages...)
	return &cp
}

func markerKey(conv, user primitive.ObjectID) string {
	return conv.Hex() + ":" + user.Hex()
}

func (r *memRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memRepo) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []entity.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *memRepo) GetAdmins(_ context.Context) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var admins []entity.User
	for _, u := range r.users {
		if u.Role == entity.AdminRole && u.Active() {
			admins = append(admins, u)
		}
	}
	sort.Slice(admins, func(i, j int) bool { return admins[i].ID.Hex() < admins[j].ID.Hex() })
	return admins, nil
}

func (r *memRepo) GetActiveUsersExcept(_ context.Context, id primitive.ObjectID) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []entity.User
	for _, u := range r.users {
		if u.ID != id && u.Active() {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *memRepo) GetGroupByID(_ context.Context, id primitive.ObjectID) (*entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r *memRepo) GetGroupsByIDs(_ context.Context, ids []primitive.ObjectID) ([]entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var groups []entity.Group
	for _, id := range ids {
		if g, ok := r.groups[id]; ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *memRepo) GetGroupsByTeacher(_ context.Context, teacherID primitive.ObjectID) ([]entity.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var groups []entity.Group
	for _, g := range r.groups {
		if g.HasTeacher(teacherID) {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (r *memRepo) FindOrCreateConversation(_ context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[conv.Key]; ok {
		return copyConv(r.convs[id]), nil
	}
	stored := copyConv(conv)
	stored.ID = primitive.NewObjectID()
	stored.Messages = []entity.Message{}
	r.convs[stored.ID] = stored
	r.byKey[stored.Key] = stored.ID
	r.creates++
	return copyConv(stored), nil
}

func (r *memRepo) GetConversation(_ context.Context, id primitive.ObjectID) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, nil
	}
	return copyConv(c), nil
}

func (r *memRepo) SetParticipants(_ context.Context, id primitive.ObjectID, participants []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return fmt.Errorf("no conversation %s", id.Hex())
	}
	c.Participants = append([]primitive.ObjectID(nil), participants...)
	return nil
}

func (r *memRepo) SetConversationActive(_ context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return fmt.Errorf("no conversation %s", id.Hex())
	}
	c.IsActive = active
	return nil
}

func (r *memRepo) AppendMessage(_ context.Context, id primitive.ObjectID, msg entity.Message) (*entity.Message, error) {
	if r.appendFn != nil {
		if err := r.appendFn(); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation %w", entity.ErrNotFound)
	}
	c.Seq++
	msg.Seq = c.Seq
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.LastActivity) {
		c.LastActivity = msg.Timestamp
	}
	return &msg, nil
}

func (r *memRepo) FindConversations(_ context.Context, f entity.ConversationFilter) ([]entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.Conversation
	for _, c := range r.convs {
		if !f.Participant.IsZero() && !c.HasParticipant(f.Participant) {
			continue
		}
		if f.Groups != nil && !containsID(f.Groups, c.Group) {
			continue
		}
		if f.Kind != "" && c.Kind != f.Kind {
			continue
		}
		if f.ActiveOnly && !c.IsActive {
			continue
		}
		cp := copyConv(c)
		if n := len(cp.Messages); n > 1 {
			cp.Messages = cp.Messages[n-1:]
		}
		result = append(result, *cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastActivity.After(result[j].LastActivity) })
	return result, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (r *memRepo) marker(conversationID, userID primitive.ObjectID) entity.ReadMarker {
	m, ok := r.markers[markerKey(conversationID, userID)]
	if !ok {
		m = entity.ReadMarker{ConversationID: conversationID, UserID: userID}
	}
	return m
}

func (r *memRepo) AdvanceReadMarker(_ context.Context, conversationID, userID primitive.ObjectID, seq, own int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.marker(conversationID, userID)
	if seq > m.Seq {
		m.Seq = seq
		m.Own = own
	}
	r.markers[markerKey(conversationID, userID)] = m
	return nil
}

func (r *memRepo) CountOwnMessage(_ context.Context, conversationID, userID primitive.ObjectID, seq int64) error {
	if r.countFn != nil {
		if err := r.countFn(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.marker(conversationID, userID)
	if m.Seq < seq {
		m.Own++
	}
	r.markers[markerKey(conversationID, userID)] = m
	return nil
}

func (r *memRepo) GetReadMarkers(_ context.Context, userID primitive.ObjectID, conversationIDs []primitive.ObjectID) (map[primitive.ObjectID]entity.ReadMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[primitive.ObjectID]entity.ReadMarker)
	for _, id := range conversationIDs {
		if m, ok := r.markers[markerKey(id, userID)]; ok {
			result[id] = m
		}
	}
	return result, nil
}

func (r *memRepo) GetConversationMarkers(_ context.Context, conversationID primitive.ObjectID) ([]entity.ReadMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []entity.ReadMarker
	for _, m := range r.markers {
		if m.ConversationID == conversationID {
			result = append(result, m)
		}
	}
	return result, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.NewMessageEvent
}

func (n *recordingNotifier) NotifyNewMessage(event entity.NewMessageEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
