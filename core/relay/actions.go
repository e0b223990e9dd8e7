package relay

import "context"

// MessageRef identifies a previously delivered message for in-place edits.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the reference points at nothing.
func (r MessageRef) IsZero() bool { return r.ChatID == 0 && r.MessageID == 0 }

// Controls describes interactive elements attached to an outbound message.
// The transport decides how to render them.
type Controls struct {
	// MainMenu attaches the persistent command menu keyboard.
	MainMenu bool
	// ClaimUser, when nonzero, attaches a claim button bound to that user.
	ClaimUser int64
	// CloseUser, when nonzero, attaches a close button bound to that user.
	CloseUser int64
}

// None reports whether no controls are requested.
func (c Controls) None() bool { return !c.MainMenu && c.ClaimUser == 0 && c.CloseUser == 0 }

// Action is a unit of outbound work addressed to a single recipient.
type Action interface {
	Recipient() int64
}

// SendText delivers a text message.
type SendText struct {
	To       int64
	Text     string
	Controls Controls
}

func (a SendText) Recipient() int64 { return a.To }

// SendMedia delivers a single media reference with an optional caption.
type SendMedia struct {
	To       int64
	Kind     MediaKind
	FileID   string
	Caption  string
	Controls Controls
}

func (a SendMedia) Recipient() int64 { return a.To }

// EditText revises a previously sent message in place.
type EditText struct {
	To       int64
	Ref      MessageRef
	Text     string
	Controls Controls
}

func (a EditText) Recipient() int64 { return a.To }

// Transport delivers outbound actions. Implementations are expected to be
// best-effort: a failed call is reported through the error and the caller
// logs and drops the action, it is never retried.
type Transport interface {
	SendText(to int64, text string, controls Controls) (MessageRef, error)
	SendMedia(to int64, kind MediaKind, fileID, caption string, controls Controls) (MessageRef, error)
	Edit(ref MessageRef, text string, controls Controls) error
	// Ping verifies the outbound dependency is reachable.
	Ping(ctx context.Context) error
}
