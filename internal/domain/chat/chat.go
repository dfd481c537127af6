// Package chat models conversation turns exchanged with the assistant.
package chat

// Role identifies the author of a turn.
type Role string

// Known roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
}

// LatestUserTurn scans from the end and returns the most recent user turn.
func LatestUserTurn(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i], true
		}
	}
	return Turn{}, false
}
