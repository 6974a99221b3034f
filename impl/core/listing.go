package core

import (
	"context"
	"log/slog"
	"sort"

	"danceschool/entity"
	"danceschool/internal/lib/access"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListDirectConversations returns the requester's active direct chats, newest activity first.
func (c *Core) ListDirectConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error) {
	convs, err := c.repo.FindConversations(ctx, entity.ConversationFilter{
		Participant: user.ID,
		Kind:        entity.DirectConversation,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, err
	}

	markers, err := c.repo.GetReadMarkers(ctx, user.ID, conversationIDs(convs))
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]primitive.ObjectID, 0, len(convs))
	for i := range convs {
		partnerIDs = append(partnerIDs, convs[i].Partner(user.ID))
	}
	partners, err := c.repo.GetUsersByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]entity.UserProfile, len(partners))
	for i := range partners {
		byID[partners[i].ID] = partners[i].Profile()
	}

	summaries := make([]entity.ConversationSummary, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		summary := summarize(conv, user.ID, markers[conv.ID])
		if partner, ok := byID[conv.Partner(user.ID)]; ok {
			summary.Partner = &partner
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListGroupConversations returns group chats visible to the requester: every active one for
// admins, and for teachers those of groups they currently teach. The teaching set is read
// from the groups, so the stored participants do not have to be in sync.
func (c *Core) ListGroupConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error) {
	filter := entity.ConversationFilter{
		Kind:       entity.GroupConversation,
		ActiveOnly: true,
	}
	if !access.CanListAllGroupConversations(user).Allowed {
		taught, err := c.repo.GetGroupsByTeacher(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if len(taught) == 0 {
			return []entity.ConversationSummary{}, nil
		}
		filter.Groups = make([]primitive.ObjectID, 0, len(taught))
		for i := range taught {
			filter.Groups = append(filter.Groups, taught[i].ID)
		}
	}

	convs, err := c.repo.FindConversations(ctx, filter)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]primitive.ObjectID, 0, len(convs))
	for i := range convs {
		groupIDs = append(groupIDs, convs[i].Group)
	}
	groups, err := c.repo.GetGroupsByIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*entity.Group, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}

	visible := make([]entity.Conversation, 0, len(convs))
	for i := range convs {
		group, ok := byID[convs[i].Group]
		if !ok {
			continue
		}
		if !access.CanAccessGroupConversation(user, group).Allowed {
			c.log.With(
				slog.String("conversation", convs[i].ID.Hex()),
				slog.String("user", user.Username),
			).Debug("group chat hidden, user no longer teaches the group")
			continue
		}
		visible = append(visible, convs[i])
	}

	markers, err := c.repo.GetReadMarkers(ctx, user.ID, conversationIDs(visible))
	if err != nil {
		return nil, err
	}

	summaries := make([]entity.ConversationSummary, 0, len(visible))
	for i := range visible {
		conv := &visible[i]
		summary := summarize(conv, user.ID, markers[conv.ID])
		profile := byID[conv.Group].Profile()
		summary.Group = &profile
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListConversations merges group and direct chats into one list ordered by last activity.
func (c *Core) ListConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error) {
	groups, err := c.ListGroupConversations(ctx, user)
	if err != nil {
		return nil, err
	}
	direct, err := c.ListDirectConversations(ctx, user)
	if err != nil {
		return nil, err
	}

	all := append(groups, direct...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastActivity.After(all[j].LastActivity)
	})
	return all, nil
}

func summarize(conv *entity.Conversation, me primitive.ObjectID, marker entity.ReadMarker) entity.ConversationSummary {
	return entity.ConversationSummary{
		ID:           conv.ID,
		Kind:         conv.Kind,
		LastMessage:  lastMessage(conv, me),
		UnreadCount:  conv.Unread(marker),
		LastActivity: conv.LastActivity,
	}
}

func conversationIDs(convs []entity.Conversation) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
	}
	return ids
}
