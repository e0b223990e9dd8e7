package relay

// CommandName identifies a recognized slash command.
type CommandName string

const (
	CmdStart    CommandName = "start"
	CmdMenu     CommandName = "menu"
	CmdFAQ      CommandName = "faq"
	CmdSchedule CommandName = "schedule"
	CmdPayment  CommandName = "payment"
	CmdHelp     CommandName = "help"
	// CmdSupport opens a support request that the operator can claim.
	CmdSupport CommandName = "support"
	// CmdFinish closes the user's own support chat.
	CmdFinish CommandName = "finish"
	// CmdHistory is the operator command listing recent relay history for a user.
	CmdHistory CommandName = "history"
)

// Button identifies an inline control pressed in a previously sent message.
type Button string

const (
	// BtnClaim binds the operator to the user carried in the payload.
	BtnClaim Button = "claim"
	// BtnClose closes the session of the user carried in the payload.
	BtnClose Button = "close"
)

// MediaKind classifies a forwarded media reference.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaVoice    MediaKind = "voice"
	MediaVideo    MediaKind = "video"
)

// Event is one decoded inbound update. Decoding happens once at the
// transport boundary; the router only ever sees these types.
type Event interface {
	// Sender is the identity the event came from.
	Sender() int64
}

// Command is a recognized slash command, optionally with an argument.
type Command struct {
	From int64
	Name CommandName
	Arg  string
}

func (c Command) Sender() int64 { return c.From }

// TextMessage is a plain text message.
type TextMessage struct {
	From int64
	Text string
}

func (m TextMessage) Sender() int64 { return m.From }

// MediaMessage carries a single media file reference. The file is forwarded
// by reference only, it is never re-encoded.
type MediaMessage struct {
	From    int64
	Kind    MediaKind
	FileID  string
	Caption string
}

func (m MediaMessage) Sender() int64 { return m.From }

// ButtonPress is an inline button press with a user id payload. Ref points
// at the message containing the pressed button so the router can revise it
// in place.
type ButtonPress struct {
	From   int64
	Button Button
	Target int64
	Ref    MessageRef
}

func (b ButtonPress) Sender() int64 { return b.From }
