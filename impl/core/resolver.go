package core

import (
	"context"
	"fmt"
	"log/slog"

	"danceschool/entity"
	"danceschool/internal/lib/access"
	"danceschool/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// resolveGroup finds or creates the conversation of a group after checking that the
// requester may access it. The stored participant set follows the current teacher list.
func (c *Core) resolveGroup(ctx context.Context, user *entity.UserAuth, groupID primitive.ObjectID) (*entity.Conversation, *entity.Group, error) {
	group, err := c.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, fmt.Errorf("group %w", entity.ErrNotFound)
	}

	if err = access.CanAccessGroupConversation(user, group).Err(); err != nil {
		return nil, nil, err
	}

	participants, err := c.groupParticipants(ctx, group)
	if err != nil {
		return nil, nil, err
	}

	conv, err := c.repo.FindOrCreateConversation(ctx, entity.NewGroupConversation(group.ID, participants))
	if err != nil {
		return nil, nil, err
	}

	if !sameMembers(conv.Participants, participants) {
		if err = c.repo.SetParticipants(ctx, conv.ID, participants); err != nil {
			return nil, nil, err
		}
		c.log.With(
			slog.String("conversation", conv.ID.Hex()),
			slog.Int("participants", len(participants)),
		).Debug("group participants synced")
		conv.Participants = participants
	}

	if err = c.reactivate(ctx, conv); err != nil {
		return nil, nil, err
	}
	return conv, group, nil
}

// groupParticipants is the group's teachers plus every active admin, without duplicates.
func (c *Core) groupParticipants(ctx context.Context, group *entity.Group) ([]primitive.ObjectID, error) {
	admins, err := c.repo.GetAdmins(ctx)
	if err != nil {
		return nil, err
	}

	teachers := group.TeacherIDs()
	participants := make([]primitive.ObjectID, 0, len(teachers)+len(admins))
	seen := make(map[primitive.ObjectID]bool, cap(participants))
	add := func(id primitive.ObjectID) {
		if id.IsZero() || seen[id] {
			return
		}
		seen[id] = true
		participants = append(participants, id)
	}

	for _, id := range teachers {
		add(id)
	}
	for _, admin := range admins {
		add(admin.ID)
	}
	return participants, nil
}

func (c *Core) resolveDirect(ctx context.Context, user *entity.UserAuth, partnerID primitive.ObjectID) (*entity.Conversation, *entity.User, error) {
	if user == nil {
		return nil, nil, fmt.Errorf("%w: no requester", entity.ErrUnauthorized)
	}
	if partnerID == user.ID {
		return nil, nil, fmt.Errorf("%w: cannot open a chat with yourself", entity.ErrValidation)
	}

	partner, err := c.repo.GetUserByID(ctx, partnerID)
	if err != nil {
		return nil, nil, err
	}
	if partner == nil {
		return nil, nil, fmt.Errorf("partner %w", entity.ErrNotFound)
	}

	conv, err := c.repo.FindOrCreateConversation(ctx, entity.NewDirectConversation(user.ID, partner.ID))
	if err != nil {
		return nil, nil, err
	}

	if err = access.CanAccessDirectConversation(user, conv).Err(); err != nil {
		return nil, nil, err
	}

	if err = c.reactivate(ctx, conv); err != nil {
		return nil, nil, err
	}
	return conv, partner, nil
}

// reactivate brings back a soft-deleted conversation when someone opens it again;
// its unique key would otherwise block a fresh one.
func (c *Core) reactivate(ctx context.Context, conv *entity.Conversation) error {
	if conv.IsActive {
		return nil
	}
	if err := c.repo.SetConversationActive(ctx, conv.ID, true); err != nil {
		return err
	}
	c.log.With(
		slog.String("conversation", conv.ID.Hex()),
	).Info("conversation reactivated")
	conv.IsActive = true
	return nil
}

func sameMembers(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[primitive.ObjectID]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

// Authorize reports whether the user may subscribe to realtime updates of a conversation.
func (c *Core) Authorize(ctx context.Context, user *entity.UserAuth, conversationID string) error {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return fmt.Errorf("%w: invalid conversation id", entity.ErrValidation)
	}

	conv, err := c.repo.GetConversation(ctx, id)
	if err != nil {
		c.log.With(sl.Err(err)).Error("authorize room join")
		return err
	}
	if conv == nil {
		return fmt.Errorf("conversation %w", entity.ErrNotFound)
	}

	var group *entity.Group
	if conv.Kind == entity.GroupConversation {
		if group, err = c.repo.GetGroupByID(ctx, conv.Group); err != nil {
			return err
		}
	}
	return access.CanJoinRoom(user, conv, group).Err()
}
