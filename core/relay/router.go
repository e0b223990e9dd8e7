package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/m3rciful/relaybot/core/logger"
	"github.com/m3rciful/relaybot/core/relay/history"
	"github.com/m3rciful/relaybot/core/session"
)

// Hours bounds the in-hours window on a 24h clock. Open == Close means the
// operator is always in-hours.
type Hours struct {
	Open  int
	Close int
}

// Within reports whether t falls inside the window. A window with
// Close < Open wraps over midnight.
func (h Hours) Within(t time.Time) bool {
	if h.Open == h.Close {
		return true
	}
	hour := t.Hour()
	if h.Open < h.Close {
		return hour >= h.Open && hour < h.Close
	}
	return hour >= h.Open || hour < h.Close
}

// Options configures a Router.
type Options struct {
	// Operator is the identity of the single privileged participant.
	Operator int64
	// Hours selects between the in-hours and off-hours acknowledgement.
	Hours Hours
	// CloseKeyword is the literal text the operator sends to close the
	// currently selected chat.
	CloseKeyword string
	// History receives forwarded messages opportunistically; nil means noop.
	History history.Sink
	// MaxMessageLen overrides the outbound pagination limit (tests only).
	MaxMessageLen int
	// Clock overrides time.Now (tests only).
	Clock func() time.Time
}

// Router is the session-routing state machine. Route is safe for concurrent
// use: every decision for a given event runs under the store mutex, so two
// concurrent events for the same user cannot produce divergent states.
type Router struct {
	store    *session.Store
	operator int64
	hours    Hours
	closeKw  string
	history  history.Sink
	maxLen   int
	now      func() time.Time
}

// NewRouter builds a Router over the given store.
func NewRouter(store *session.Store, opts Options) *Router {
	r := &Router{
		store:    store,
		operator: opts.Operator,
		hours:    opts.Hours,
		closeKw:  opts.CloseKeyword,
		history:  opts.History,
		maxLen:   opts.MaxMessageLen,
		now:      opts.Clock,
	}
	if r.closeKw == "" {
		r.closeKw = "!close"
	}
	if r.history == nil {
		r.history = history.NewNoop()
	}
	if r.maxLen <= 0 {
		r.maxLen = MaxMessageLen
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Route decides what to do with one decoded event and returns the outbound
// actions. The session store is mutated atomically with the decision; the
// returned actions are meant to be dispatched asynchronously afterwards.
func (r *Router) Route(ctx context.Context, ev Event) []Action {
	if ev == nil {
		return nil
	}

	var (
		acts    []Action
		entries []history.Entry
	)
	r.store.Mutate(func(tx session.Txn) {
		switch e := ev.(type) {
		case Command:
			acts, entries = r.routeCommand(ctx, tx, e)
		case ButtonPress:
			acts = r.routeButton(ctx, tx, e)
		case TextMessage:
			acts, entries = r.routeText(ctx, tx, e)
		case MediaMessage:
			acts, entries = r.routeMedia(tx, e)
		default:
			logger.Warn(ctx, "relay", "route.unknown",
				slog.Int64("user_id", ev.Sender()),
			)
		}
	})

	// History is best-effort and must not hold the store lock.
	for _, en := range entries {
		if err := r.history.Append(ctx, en); err != nil {
			logger.Warn(ctx, "relay", "history.append.fail",
				slog.Int64("user_id", en.UserID),
				slog.String("err", err.Error()),
			)
		}
	}

	return r.paginate(acts)
}

func (r *Router) routeCommand(ctx context.Context, tx session.Txn, e Command) ([]Action, []history.Entry) {
	switch e.Name {
	case CmdStart, CmdMenu:
		// start/menu is terminal: it resets any open conversation.
		prev := tx.Get(e.From)
		tx.Delete(e.From)
		if prev != session.StateIdle {
			logger.Info(ctx, "relay", "session.reset",
				slog.Int64("user_id", e.From),
				slog.String("from_state", string(prev)),
			)
		}
		return []Action{SendText{To: e.From, Text: textWelcome, Controls: Controls{MainMenu: true}}}, nil

	case CmdHelp:
		return []Action{SendText{To: e.From, Text: textHelp, Controls: Controls{MainMenu: true}}}, nil

	case CmdFAQ:
		return []Action{SendText{To: e.From, Text: textFAQ, Controls: Controls{MainMenu: true}}}, nil

	case CmdSchedule:
		text := fmt.Sprintf(textSchedule, r.hours.Open, r.hours.Close)
		return []Action{SendText{To: e.From, Text: text, Controls: Controls{MainMenu: true}}}, nil

	case CmdPayment:
		return []Action{SendText{To: e.From, Text: textPayment, Controls: Controls{MainMenu: true}}}, nil

	case CmdSupport:
		return r.routeSupportRequest(ctx, tx, e.From), nil

	case CmdFinish:
		return r.routeFinish(ctx, tx, e.From), nil

	case CmdHistory:
		return r.routeHistory(ctx, e), nil
	}
	return []Action{SendText{To: e.From, Text: textFallback}}, nil
}

func (r *Router) routeSupportRequest(ctx context.Context, tx session.Txn, user int64) []Action {
	ack := textAckInHours
	if !r.hours.Within(r.now()) {
		ack = textAckOffHours
	}

	switch tx.Get(user) {
	case session.StateIdle:
		tx.SetState(user, session.StatePending)
		logger.Info(ctx, "relay", "session.pending", slog.Int64("user_id", user))
		return []Action{
			SendText{To: user, Text: ack},
			SendText{
				To:       r.operator,
				Text:     textOperatorNotify(user),
				Controls: Controls{ClaimUser: user, CloseUser: user},
			},
		}
	case session.StatePending:
		// repeat request: resend the acknowledgement, no duplicate notify
		return []Action{SendText{To: user, Text: ack}}
	default:
		return []Action{SendText{To: user, Text: textAlreadyActive}}
	}
}

func (r *Router) routeFinish(ctx context.Context, tx session.Txn, user int64) []Action {
	if tx.Get(user) == session.StateIdle {
		return []Action{SendText{To: user, Text: textNothingToClose, Controls: Controls{MainMenu: true}}}
	}
	tx.Delete(user)
	logger.Info(ctx, "relay", "session.closed",
		slog.Int64("user_id", user),
		slog.String("cause", "finish"),
	)
	return []Action{
		SendText{To: user, Text: textChatClosed, Controls: Controls{MainMenu: true}},
		SendText{To: r.operator, Text: textOperatorFinished(user)},
	}
}

func (r *Router) routeHistory(ctx context.Context, e Command) []Action {
	if e.From != r.operator {
		return []Action{SendText{To: e.From, Text: textFallback}}
	}
	target, err := strconv.ParseInt(strings.TrimSpace(e.Arg), 10, 64)
	if err != nil {
		return []Action{SendText{To: r.operator, Text: "Usage: /history <user id>"}}
	}
	entries, err := r.history.Query(ctx, target, 10)
	if err != nil || len(entries) == 0 {
		return []Action{SendText{To: r.operator, Text: fmt.Sprintf("No history for %d.", target)}}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "History for %d:\n", target)
	for _, en := range entries {
		arrow := "→ op"
		if en.Direction == history.OperatorToUser {
			arrow = "← op"
		}
		fmt.Fprintf(&b, "%s %s %s\n", en.CreatedAt.Format("01-02 15:04"), arrow, en.Content)
	}
	return []Action{SendText{To: r.operator, Text: b.String()}}
}

func (r *Router) routeButton(ctx context.Context, tx session.Txn, e ButtonPress) []Action {
	if e.From != r.operator {
		// claim/close controls are only ever sent to the operator; anything
		// else is a stale or forged press and is ignored
		logger.Warn(ctx, "relay", "button.reject",
			slog.Int64("user_id", e.From),
			slog.String("action", string(e.Button)),
		)
		return nil
	}
	if e.Target == 0 {
		logger.Warn(ctx, "relay", "button.bad_payload", slog.String("action", string(e.Button)))
		return nil
	}

	st := tx.Get(e.Target)

	switch e.Button {
	case BtnClaim:
		if st == session.StateIdle {
			// stale claim: the session is long gone, acknowledge silently
			logger.Debug(ctx, "relay", "claim.stale", slog.Int64("target", e.Target))
			return nil
		}
		tx.SetState(e.Target, session.StateActive)
		tx.Select(e.Target)
		logger.Info(ctx, "relay", "session.claimed",
			slog.Int64("target", e.Target),
			slog.String("from_state", string(st)),
		)
		acts := []Action{SendText{To: e.Target, Text: textChatStarted}}
		if !e.Ref.IsZero() {
			acts = append(acts, EditText{To: r.operator, Ref: e.Ref, Text: textOperatorClaimed(e.Target), Controls: Controls{CloseUser: e.Target}})
		} else {
			acts = append(acts, SendText{To: r.operator, Text: textOperatorClaimed(e.Target)})
		}
		return acts

	case BtnClose:
		if st == session.StateIdle {
			logger.Debug(ctx, "relay", "close.stale", slog.Int64("target", e.Target))
			return nil
		}
		tx.Delete(e.Target)
		logger.Info(ctx, "relay", "session.closed",
			slog.Int64("target", e.Target),
			slog.String("cause", "close_button"),
		)
		acts := []Action{SendText{To: e.Target, Text: textChatClosed, Controls: Controls{MainMenu: true}}}
		if !e.Ref.IsZero() {
			acts = append(acts, EditText{To: r.operator, Ref: e.Ref, Text: textOperatorClosed(e.Target)})
		} else {
			acts = append(acts, SendText{To: r.operator, Text: textOperatorClosed(e.Target)})
		}
		return acts
	}

	logger.Warn(ctx, "relay", "button.unknown", slog.String("action", string(e.Button)))
	return nil
}

func (r *Router) routeText(ctx context.Context, tx session.Txn, e TextMessage) ([]Action, []history.Entry) {
	if e.From == r.operator {
		return r.routeOperatorText(ctx, tx, e)
	}

	switch tx.Get(e.From) {
	case session.StateActive:
		entry := history.Entry{
			UserID:    e.From,
			Direction: history.UserToOperator,
			Kind:      "text",
			Content:   e.Text,
			CreatedAt: r.now().UTC(),
		}
		act := SendText{
			To:       r.operator,
			Text:     textForwarded(e.From, e.Text),
			Controls: Controls{ClaimUser: e.From, CloseUser: e.From},
		}
		return []Action{act}, []history.Entry{entry}

	case session.StatePending:
		return []Action{SendText{To: e.From, Text: textPendingWait}}, nil
	}

	return []Action{SendText{To: e.From, Text: textFallback, Controls: Controls{MainMenu: true}}}, nil
}

func (r *Router) routeOperatorText(ctx context.Context, tx session.Txn, e TextMessage) ([]Action, []history.Entry) {
	sel, ok := tx.Selection()

	if strings.TrimSpace(e.Text) == r.closeKw {
		if !ok {
			return []Action{SendText{To: r.operator, Text: textNoSelection}}, nil
		}
		tx.Delete(sel)
		logger.Info(ctx, "relay", "session.closed",
			slog.Int64("target", sel),
			slog.String("cause", "close_keyword"),
		)
		return []Action{
			SendText{To: sel, Text: textChatClosed, Controls: Controls{MainMenu: true}},
			SendText{To: r.operator, Text: textOperatorClosed(sel)},
		}, nil
	}

	if !ok {
		return []Action{SendText{To: r.operator, Text: textNoSelection}}, nil
	}

	entry := history.Entry{
		UserID:    sel,
		Direction: history.OperatorToUser,
		Kind:      "text",
		Content:   e.Text,
		CreatedAt: r.now().UTC(),
	}
	return []Action{SendText{To: sel, Text: e.Text}}, []history.Entry{entry}
}

func (r *Router) routeMedia(tx session.Txn, e MediaMessage) ([]Action, []history.Entry) {
	if e.From == r.operator {
		sel, ok := tx.Selection()
		if !ok {
			return []Action{SendText{To: r.operator, Text: textNoSelection}}, nil
		}
		entry := history.Entry{
			UserID:    sel,
			Direction: history.OperatorToUser,
			Kind:      string(e.Kind),
			Content:   e.Caption,
			CreatedAt: r.now().UTC(),
		}
		return []Action{SendMedia{To: sel, Kind: e.Kind, FileID: e.FileID, Caption: e.Caption}}, []history.Entry{entry}
	}

	switch tx.Get(e.From) {
	case session.StateActive, session.StatePending:
		entry := history.Entry{
			UserID:    e.From,
			Direction: history.UserToOperator,
			Kind:      string(e.Kind),
			Content:   e.Caption,
			CreatedAt: r.now().UTC(),
		}
		act := SendMedia{
			To:       r.operator,
			Kind:     e.Kind,
			FileID:   e.FileID,
			Caption:  textForwardedCaption(e.From, e.Caption),
			Controls: Controls{ClaimUser: e.From, CloseUser: e.From},
		}
		return []Action{act}, []history.Entry{entry}
	}

	return []Action{SendText{To: e.From, Text: textFallback, Controls: Controls{MainMenu: true}}}, nil
}

// paginate splits oversized text actions into sequential chunks. Controls
// ride on the last chunk so the keyboard ends up under the final message.
func (r *Router) paginate(acts []Action) []Action {
	out := make([]Action, 0, len(acts))
	for _, a := range acts {
		st, ok := a.(SendText)
		if !ok {
			out = append(out, a)
			continue
		}
		chunks := SplitMessage(st.Text, r.maxLen)
		if len(chunks) == 1 {
			out = append(out, st)
			continue
		}
		for i, chunk := range chunks {
			next := SendText{To: st.To, Text: chunk}
			if i == len(chunks)-1 {
				next.Controls = st.Controls
			}
			out = append(out, next)
		}
	}
	return out
}
