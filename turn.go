package chatrelay

import "time"

// User-facing outcomes recorded on a failed turn.
const (
	MsgFailedResponse = "Failed response from the server."
	MsgFailedConnect  = "Failed to connect to the server."
	MsgAuthFailed     = "Authentication failed."
)

// TurnStatus tracks the lifecycle of a turn's relay call.
type TurnStatus int

const (
	TurnPending   TurnStatus = iota // Relay call outstanding.
	TurnFulfilled                   // Assistant response recorded.
	TurnFailed                      // Error recorded.
)

func (s TurnStatus) String() string {
	switch s {
	case TurnPending:
		return "pending"
	case TurnFulfilled:
		return "fulfilled"
	case TurnFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Turn is one user submission paired with its eventual response.
type Turn struct {
	User       string
	Assistant  string
	Error      string
	Attachment *Attachment
	Images     [][]byte
	Status     TurnStatus
	CreatedAt  time.Time
}

// NewTurn creates a pending turn.
func NewTurn(user string, attachment *Attachment, now time.Time) Turn {
	return Turn{
		User:       user,
		Attachment: attachment,
		Status:     TurnPending,
		CreatedAt:  now,
	}
}

// Pending reports whether the turn is waiting for the relay.
func (t Turn) Pending() bool { return t.Status == TurnPending }

// Fulfill records a successful response.
func (t *Turn) Fulfill(text string, images [][]byte) {
	t.Assistant = text
	t.Images = images
	t.Error = ""
	t.Status = TurnFulfilled
}

// Fail records a failure message. The assistant text is left untouched.
func (t *Turn) Fail(msg string) {
	t.Error = msg
	t.Status = TurnFailed
}
