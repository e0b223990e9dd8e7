package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/relay"
)

func msgFrom(id int64, text string) *tele.Message {
	return &tele.Message{Sender: &tele.User{ID: id}, Text: text}
}

func TestDecodeMessageCommands(t *testing.T) {
	cases := []struct {
		text string
		want relay.CommandName
		arg  string
	}{
		{"/start", relay.CmdStart, ""},
		{"/support", relay.CmdSupport, ""},
		{"/history 42", relay.CmdHistory, "42"},
		{"/faq@relaybot", relay.CmdFAQ, ""},
		{"  /menu  ", relay.CmdMenu, ""},
	}
	for _, tc := range cases {
		ev := DecodeMessage(msgFrom(7, tc.text))
		cmd, ok := ev.(relay.Command)
		if !ok {
			t.Fatalf("DecodeMessage(%q) = %T, want Command", tc.text, ev)
		}
		if cmd.Name != tc.want || cmd.Arg != tc.arg || cmd.From != 7 {
			t.Errorf("DecodeMessage(%q) = %+v", tc.text, cmd)
		}
	}
}

func TestDecodeMessageUnknownSlashIsText(t *testing.T) {
	ev := DecodeMessage(msgFrom(7, "/frobnicate"))
	if _, ok := ev.(relay.TextMessage); !ok {
		t.Fatalf("got %T, want TextMessage", ev)
	}
}

func TestDecodeMessagePlainText(t *testing.T) {
	ev := DecodeMessage(msgFrom(7, "hello there"))
	txt, ok := ev.(relay.TextMessage)
	if !ok {
		t.Fatalf("got %T, want TextMessage", ev)
	}
	if txt.From != 7 || txt.Text != "hello there" {
		t.Errorf("decoded = %+v", txt)
	}
}

func TestDecodeMessageMedia(t *testing.T) {
	m := &tele.Message{
		Sender:  &tele.User{ID: 7},
		Photo:   &tele.Photo{File: tele.File{FileID: "photo-1"}},
		Caption: "look",
	}
	ev := DecodeMessage(m)
	media, ok := ev.(relay.MediaMessage)
	if !ok {
		t.Fatalf("got %T, want MediaMessage", ev)
	}
	if media.Kind != relay.MediaPhoto || media.FileID != "photo-1" || media.Caption != "look" {
		t.Errorf("decoded = %+v", media)
	}
}

func TestDecodeMessageIgnoresServiceUpdates(t *testing.T) {
	if ev := DecodeMessage(&tele.Message{Sender: &tele.User{ID: 7}}); ev != nil {
		t.Errorf("empty message decoded to %#v", ev)
	}
	if ev := DecodeMessage(nil); ev != nil {
		t.Errorf("nil message decoded to %#v", ev)
	}
}

func TestDecodeCallbackClaim(t *testing.T) {
	cb := &tele.Callback{
		Sender: &tele.User{ID: 99},
		Data:   "\fclaim|42",
		Message: &tele.Message{
			ID:   17,
			Chat: &tele.Chat{ID: 99},
		},
	}
	press, ok := DecodeCallback(cb)
	if !ok {
		t.Fatal("claim callback rejected")
	}
	if press.From != 99 || press.Button != relay.BtnClaim || press.Target != 42 {
		t.Errorf("press = %+v", press)
	}
	if press.Ref.ChatID != 99 || press.Ref.MessageID != 17 {
		t.Errorf("ref = %+v", press.Ref)
	}
}

func TestDecodeCallbackUniqueField(t *testing.T) {
	cb := &tele.Callback{
		Sender: &tele.User{ID: 99},
		Unique: "close",
		Data:   "42",
	}
	press, ok := DecodeCallback(cb)
	if !ok {
		t.Fatal("close callback rejected")
	}
	if press.Button != relay.BtnClose || press.Target != 42 {
		t.Errorf("press = %+v", press)
	}
}

func TestDecodeCallbackMalformed(t *testing.T) {
	cases := []struct {
		name string
		cb   *tele.Callback
	}{
		{"nil", nil},
		{"no sender", &tele.Callback{Data: "\fclaim|42"}},
		{"unknown unique", &tele.Callback{Sender: &tele.User{ID: 1}, Data: "\fdelete|42"}},
		{"non-numeric payload", &tele.Callback{Sender: &tele.User{ID: 1}, Data: "\fclaim|abc"}},
		{"empty payload", &tele.Callback{Sender: &tele.User{ID: 1}, Data: "\fclaim|"}},
		{"zero payload", &tele.Callback{Sender: &tele.User{ID: 1}, Data: "\fclaim|0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if press, ok := DecodeCallback(tc.cb); ok {
				t.Errorf("accepted malformed callback: %+v", press)
			}
		})
	}
}
