package telegram

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/relay"
)

// Decoding happens once at this boundary: raw Telegram updates become typed
// relay events, and everything past this file works on those types only.

var commandNames = map[string]relay.CommandName{
	"/start":    relay.CmdStart,
	"/menu":     relay.CmdMenu,
	"/faq":      relay.CmdFAQ,
	"/schedule": relay.CmdSchedule,
	"/payment":  relay.CmdPayment,
	"/help":     relay.CmdHelp,
	"/support":  relay.CmdSupport,
	"/finish":   relay.CmdFinish,
	"/history":  relay.CmdHistory,
}

// DecodeMessage converts an inbound message to a relay event. Slash commands
// become Command events, attached media becomes MediaMessage, anything else
// with text becomes TextMessage. Returns nil for updates the relay ignores
// (stickers, locations, service messages).
func DecodeMessage(m *tele.Message) relay.Event {
	if m == nil || m.Sender == nil {
		return nil
	}
	from := m.Sender.ID

	if text := strings.TrimSpace(m.Text); strings.HasPrefix(text, "/") {
		word, arg, _ := strings.Cut(text, " ")
		// strip the @botname suffix used in group mentions
		word, _, _ = strings.Cut(word, "@")
		if name, ok := commandNames[strings.ToLower(word)]; ok {
			return relay.Command{From: from, Name: name, Arg: strings.TrimSpace(arg)}
		}
		return relay.TextMessage{From: from, Text: m.Text}
	}

	if media := decodeMedia(m); media != nil {
		media.From = from
		return *media
	}

	if m.Text != "" {
		return relay.TextMessage{From: from, Text: m.Text}
	}
	return nil
}

func decodeMedia(m *tele.Message) *relay.MediaMessage {
	switch {
	case m.Photo != nil:
		return &relay.MediaMessage{Kind: relay.MediaPhoto, FileID: m.Photo.FileID, Caption: m.Caption}
	case m.Document != nil:
		return &relay.MediaMessage{Kind: relay.MediaDocument, FileID: m.Document.FileID, Caption: m.Caption}
	case m.Voice != nil:
		return &relay.MediaMessage{Kind: relay.MediaVoice, FileID: m.Voice.FileID, Caption: m.Caption}
	case m.Video != nil:
		return &relay.MediaMessage{Kind: relay.MediaVideo, FileID: m.Video.FileID, Caption: m.Caption}
	}
	return nil
}

// DecodeCallback converts an inline button press to a ButtonPress event.
// The second return is false when the payload is malformed or the unique is
// not a relay control; such presses are dropped by the caller.
func DecodeCallback(cb *tele.Callback) (relay.ButtonPress, bool) {
	if cb == nil || cb.Sender == nil {
		return relay.ButtonPress{}, false
	}

	unique, payload := parseCallbackData(cb)

	var button relay.Button
	switch unique {
	case cbClaim:
		button = relay.BtnClaim
	case cbClose:
		button = relay.BtnClose
	default:
		return relay.ButtonPress{}, false
	}

	target, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil || target == 0 {
		return relay.ButtonPress{}, false
	}

	press := relay.ButtonPress{
		From:   cb.Sender.ID,
		Button: button,
		Target: target,
	}
	if cb.Message != nil {
		press.Ref = refOf(cb.Message)
	}
	return press, true
}

// parseCallbackData parses telebot's \f<unique>|<payload> encoding.
func parseCallbackData(cb *tele.Callback) (string, string) {
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	raw = strings.TrimPrefix(raw, "\\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}
