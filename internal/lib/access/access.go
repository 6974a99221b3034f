package access

import (
	"fmt"

	"danceschool/entity"
)

// Decision is the outcome of a capability check. Reason explains a denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allowed decision and a wrapped entity.ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", entity.ErrForbidden, d.Reason)
}

// CanAccessGroupConversation is evaluated against the group as it is now,
// so teachers added to or removed from the group gain or lose access immediately.
func CanAccessGroupConversation(user *entity.UserAuth, group *entity.Group) Decision {
	if user == nil {
		return deny("no requester")
	}
	if group == nil {
		return deny("no group")
	}
	if user.IsAdmin() {
		return allow()
	}
	if user.Role == entity.TeacherRole && group.HasTeacher(user.ID) {
		return allow()
	}
	return deny("not a teacher of this group")
}

func CanAccessDirectConversation(user *entity.UserAuth, conv *entity.Conversation) Decision {
	if user == nil {
		return deny("no requester")
	}
	if conv == nil || conv.Kind != entity.DirectConversation {
		return deny("not a direct conversation")
	}
	if !conv.HasParticipant(user.ID) {
		return deny("not a participant")
	}
	return allow()
}

// CanListAllGroupConversations lets admins see every group chat, not only those they were
// added to when the chat was created.
func CanListAllGroupConversations(user *entity.UserAuth) Decision {
	if user != nil && user.IsAdmin() {
		return allow()
	}
	return deny("admin only")
}

func CanRegisterUsers(user *entity.UserAuth) Decision {
	if user != nil && user.IsAdmin() {
		return allow()
	}
	return deny("only admins can register users")
}

// CanJoinRoom applies the read rules of the conversation's kind to a realtime subscription.
// group is only consulted for group conversations.
func CanJoinRoom(user *entity.UserAuth, conv *entity.Conversation, group *entity.Group) Decision {
	if conv == nil {
		return deny("no conversation")
	}
	if conv.Kind == entity.GroupConversation {
		return CanAccessGroupConversation(user, group)
	}
	return CanAccessDirectConversation(user, conv)
}
