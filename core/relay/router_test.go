package relay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/relaybot/core/session"
)

const opID int64 = 99

func newTestRouter(t *testing.T, opts Options) (*Router, *session.Store) {
	t.Helper()
	store := session.NewStore()
	if opts.Operator == 0 {
		opts.Operator = opID
	}
	if opts.Clock == nil {
		// fixed in-hours clock: 12:00 inside the default 9-21 window
		opts.Clock = func() time.Time {
			return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		}
	}
	if opts.Hours == (Hours{}) {
		opts.Hours = Hours{Open: 9, Close: 21}
	}
	return NewRouter(store, opts), store
}

func sendTextTo(t *testing.T, acts []Action, to int64) SendText {
	t.Helper()
	for _, a := range acts {
		if st, ok := a.(SendText); ok && st.To == to {
			return st
		}
	}
	t.Fatalf("no SendText for %d in %#v", to, acts)
	return SendText{}
}

func TestSupportRequestNotifiesOperator(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	acts := r.Route(ctx, Command{From: 42, Name: CmdSupport})

	if got := store.Get(42); got != session.StatePending {
		t.Fatalf("state = %s, want pending", got)
	}
	ack := sendTextTo(t, acts, 42)
	if ack.Text != textAckInHours {
		t.Errorf("ack = %q, want in-hours ack", ack.Text)
	}
	notify := sendTextTo(t, acts, opID)
	if !strings.Contains(notify.Text, "42") {
		t.Errorf("notify %q does not carry the user id", notify.Text)
	}
	if notify.Controls.ClaimUser != 42 || notify.Controls.CloseUser != 42 {
		t.Errorf("notify controls = %+v, want claim/close bound to 42", notify.Controls)
	}
}

func TestSupportRequestOffHours(t *testing.T) {
	r, _ := newTestRouter(t, Options{
		Clock: func() time.Time {
			return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
		},
	})

	acts := r.Route(context.Background(), Command{From: 42, Name: CmdSupport})

	if ack := sendTextTo(t, acts, 42); ack.Text != textAckOffHours {
		t.Errorf("ack = %q, want off-hours ack", ack.Text)
	}
}

func TestRepeatSupportRequestDoesNotDuplicateNotify(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	acts := r.Route(ctx, Command{From: 42, Name: CmdSupport})

	if len(acts) != 1 {
		t.Fatalf("got %d actions, want just the ack", len(acts))
	}
	if st := sendTextTo(t, acts, 42); st.Text != textAckInHours {
		t.Errorf("repeat ack = %q", st.Text)
	}
}

func TestClaimActivatesAndSelects(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	ref := MessageRef{ChatID: opID, MessageID: 7}
	acts := r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42, Ref: ref})

	if got := store.Get(42); got != session.StateActive {
		t.Fatalf("state = %s, want active", got)
	}
	if sel, ok := store.CurrentSelection(); !ok || sel != 42 {
		t.Fatalf("selection = %d/%v, want 42", sel, ok)
	}
	if st := sendTextTo(t, acts, 42); st.Text != textChatStarted {
		t.Errorf("user notice = %q", st.Text)
	}
	var edited bool
	for _, a := range acts {
		if e, ok := a.(EditText); ok {
			edited = true
			if e.Ref != ref {
				t.Errorf("edit ref = %+v, want %+v", e.Ref, ref)
			}
		}
	}
	if !edited {
		t.Error("expected the operator notification to be edited in place")
	}
}

func TestStaleClaimIsIgnored(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	// no session for 42 at all: the claim refers to a long-closed request
	acts := r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})

	if len(acts) != 0 {
		t.Fatalf("stale claim produced actions: %#v", acts)
	}
	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if _, ok := store.CurrentSelection(); ok {
		t.Fatal("stale claim set a selection")
	}
}

func TestClaimFromNonOperatorIsRejected(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	acts := r.Route(ctx, ButtonPress{From: 1234, Button: BtnClaim, Target: 42})

	if len(acts) != 0 {
		t.Fatalf("forged claim produced actions: %#v", acts)
	}
	if got := store.Get(42); got != session.StatePending {
		t.Fatalf("state = %s, want pending", got)
	}
}

func TestUserTextForwardedWithTag(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	acts := r.Route(ctx, TextMessage{From: 42, Text: "hello"})

	fwd := sendTextTo(t, acts, opID)
	if fwd.Text != "42: hello" {
		t.Errorf("forwarded = %q, want %q", fwd.Text, "42: hello")
	}
	if fwd.Controls.ClaimUser != 42 || fwd.Controls.CloseUser != 42 {
		t.Errorf("forwarded controls = %+v", fwd.Controls)
	}
}

func TestOperatorReplyForwardedVerbatim(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	acts := r.Route(ctx, TextMessage{From: opID, Text: "sure, on it"})

	if st := sendTextTo(t, acts, 42); st.Text != "sure, on it" {
		t.Errorf("reply = %q, want verbatim text", st.Text)
	}
}

func TestOperatorReplyWithoutSelection(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	acts := r.Route(context.Background(), TextMessage{From: opID, Text: "anyone there?"})

	if st := sendTextTo(t, acts, opID); st.Text != textNoSelection {
		t.Errorf("got %q, want no-selection notice", st.Text)
	}
}

func TestCloseKeywordEndsChat(t *testing.T) {
	r, store := newTestRouter(t, Options{CloseKeyword: "!close"})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	acts := r.Route(ctx, TextMessage{From: opID, Text: "!close"})

	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if _, ok := store.CurrentSelection(); ok {
		t.Fatal("selection survived close")
	}
	if st := sendTextTo(t, acts, 42); st.Text != textChatClosed {
		t.Errorf("user notice = %q", st.Text)
	}
	sendTextTo(t, acts, opID)
}

func TestCloseButtonEndsChat(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	acts := r.Route(ctx, ButtonPress{From: opID, Button: BtnClose, Target: 42, Ref: MessageRef{ChatID: opID, MessageID: 9}})

	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if _, ok := store.CurrentSelection(); ok {
		t.Fatal("selection survived close")
	}
	if st := sendTextTo(t, acts, 42); st.Text != textChatClosed {
		t.Errorf("user notice = %q", st.Text)
	}
}

func TestFinishClosesOwnChat(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	acts := r.Route(ctx, Command{From: 42, Name: CmdFinish})

	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if st := sendTextTo(t, acts, 42); st.Text != textChatClosed {
		t.Errorf("user notice = %q", st.Text)
	}
	sendTextTo(t, acts, opID)
}

func TestFinishWithoutSession(t *testing.T) {
	r, _ := newTestRouter(t, Options{})

	acts := r.Route(context.Background(), Command{From: 42, Name: CmdFinish})

	if st := sendTextTo(t, acts, 42); st.Text != textNothingToClose {
		t.Errorf("got %q, want nothing-to-close notice", st.Text)
	}
}

func TestIdleTextGetsFallback(t *testing.T) {
	r, store := newTestRouter(t, Options{})

	acts := r.Route(context.Background(), TextMessage{From: 42, Text: "hello"})

	if st := sendTextTo(t, acts, 42); st.Text != textFallback {
		t.Errorf("got %q, want fallback", st.Text)
	}
	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("idle text changed state to %s", got)
	}
}

func TestPendingTextGetsWaitNotice(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	acts := r.Route(ctx, TextMessage{From: 42, Text: "are you there"})

	if st := sendTextTo(t, acts, 42); st.Text != textPendingWait {
		t.Errorf("got %q, want pending wait notice", st.Text)
	}
}

func TestStartResetsSession(t *testing.T) {
	r, store := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	r.Route(ctx, Command{From: 42, Name: CmdStart})

	if got := store.Get(42); got != session.StateIdle {
		t.Fatalf("state after /start = %s, want idle", got)
	}
	if _, ok := store.CurrentSelection(); ok {
		t.Fatal("selection survived /start reset")
	}
}

func TestMediaForwardedByReference(t *testing.T) {
	r, _ := newTestRouter(t, Options{})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})
	acts := r.Route(ctx, MediaMessage{From: 42, Kind: MediaPhoto, FileID: "file-1", Caption: "see this"})

	var media SendMedia
	for _, a := range acts {
		if m, ok := a.(SendMedia); ok {
			media = m
		}
	}
	if media.To != opID || media.FileID != "file-1" || media.Kind != MediaPhoto {
		t.Fatalf("media = %+v", media)
	}
	if !strings.Contains(media.Caption, "42") {
		t.Errorf("caption %q does not carry the user id", media.Caption)
	}
}

func TestLongReplyPaginated(t *testing.T) {
	r, _ := newTestRouter(t, Options{MaxMessageLen: 10})
	ctx := context.Background()

	r.Route(ctx, Command{From: 42, Name: CmdSupport})
	r.Route(ctx, ButtonPress{From: opID, Button: BtnClaim, Target: 42})

	long := strings.Repeat("abcde\n", 8) // 48 runes
	acts := r.Route(ctx, TextMessage{From: opID, Text: long})

	if len(acts) < 2 {
		t.Fatalf("expected multiple chunks, got %d actions", len(acts))
	}
	var rebuilt strings.Builder
	for i, a := range acts {
		st, ok := a.(SendText)
		if !ok {
			t.Fatalf("action %d is %T, want SendText", i, a)
		}
		if st.To != 42 {
			t.Fatalf("chunk %d addressed to %d", i, st.To)
		}
		if got := len([]rune(st.Text)); got > 10 {
			t.Errorf("chunk %d is %d runes, limit 10", i, got)
		}
		rebuilt.WriteString(st.Text)
	}
	if rebuilt.String() != long {
		t.Errorf("chunks do not reconstruct the original text")
	}
}

func TestHoursWithin(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 6, 1, h, 30, 0, 0, time.UTC) }
	cases := []struct {
		name  string
		hours Hours
		hour  int
		want  bool
	}{
		{"inside", Hours{9, 21}, 12, true},
		{"open boundary", Hours{9, 21}, 9, true},
		{"close boundary", Hours{9, 21}, 21, false},
		{"before open", Hours{9, 21}, 8, false},
		{"always open", Hours{0, 0}, 3, true},
		{"overnight inside", Hours{22, 6}, 23, true},
		{"overnight morning", Hours{22, 6}, 5, true},
		{"overnight outside", Hours{22, 6}, 12, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.hours.Within(at(tc.hour)); got != tc.want {
				t.Errorf("Within(%d) = %v, want %v", tc.hour, got, tc.want)
			}
		})
	}
}
