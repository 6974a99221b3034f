package core

import (
	"context"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// markRead advances the reader's marker to the newest message of the conversation.
func (c *Core) markRead(ctx context.Context, conv *entity.Conversation, user *entity.UserAuth) error {
	return c.markReadUpTo(ctx, conv, user, conv.Seq)
}

func (c *Core) markReadUpTo(ctx context.Context, conv *entity.Conversation, user *entity.UserAuth, seq int64) error {
	if seq == 0 {
		return nil
	}
	return c.repo.AdvanceReadMarker(ctx, conv.ID, user.ID, seq, conv.OwnSince(user.ID, seq))
}

// UnreadCount counts messages written by others past the user's read marker.
func (c *Core) UnreadCount(ctx context.Context, conv *entity.Conversation, userID primitive.ObjectID) (int64, error) {
	markers, err := c.repo.GetReadMarkers(ctx, userID, []primitive.ObjectID{conv.ID})
	if err != nil {
		return 0, err
	}
	return conv.Unread(markers[conv.ID]), nil
}

// readState answers whether a message has been read, from the point of view of one user.
// Messages of others are read once the user's marker reaches them; the user's own messages
// are read once any other participant's marker does.
type readState struct {
	me     primitive.ObjectID
	mine   int64
	others int64
}

func newReadState(me primitive.ObjectID, markers []entity.ReadMarker) readState {
	rs := readState{me: me}
	for _, m := range markers {
		if m.UserID == me {
			if m.Seq > rs.mine {
				rs.mine = m.Seq
			}
			continue
		}
		if m.Seq > rs.others {
			rs.others = m.Seq
		}
	}
	return rs
}

func (rs readState) isRead(msg entity.Message) bool {
	if msg.Sender == rs.me {
		return msg.Seq <= rs.others
	}
	return msg.Seq <= rs.mine
}
