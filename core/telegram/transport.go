package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/relay"
)

// BotTransport delivers relay actions over the Telegram Bot API.
type BotTransport struct {
	bot   *tele.Bot
	token string
}

// NewBotTransport wraps an initialized bot.
func NewBotTransport(bot *tele.Bot, token string) *BotTransport {
	return &BotTransport{bot: bot, token: token}
}

var _ relay.Transport = (*BotTransport)(nil)

// SendText delivers a text message and reports where it landed.
func (t *BotTransport) SendText(to int64, text string, ctl relay.Controls) (relay.MessageRef, error) {
	msg, err := t.bot.Send(tele.ChatID(to), text, sendOptions(ctl)...)
	if err != nil {
		return relay.MessageRef{}, err
	}
	return refOf(msg), nil
}

// SendMedia forwards a media file by its Telegram file id, never re-encoding.
func (t *BotTransport) SendMedia(to int64, kind relay.MediaKind, fileID, caption string, ctl relay.Controls) (relay.MessageRef, error) {
	var what any
	file := tele.File{FileID: fileID}
	switch kind {
	case relay.MediaPhoto:
		what = &tele.Photo{File: file, Caption: caption}
	case relay.MediaDocument:
		what = &tele.Document{File: file, Caption: caption}
	case relay.MediaVoice:
		what = &tele.Voice{File: file, Caption: caption}
	case relay.MediaVideo:
		what = &tele.Video{File: file, Caption: caption}
	default:
		return relay.MessageRef{}, fmt.Errorf("telegram: unsupported media kind %q", kind)
	}

	msg, err := t.bot.Send(tele.ChatID(to), what, sendOptions(ctl)...)
	if err != nil {
		return relay.MessageRef{}, err
	}
	return refOf(msg), nil
}

// Edit revises a previously sent message in place.
func (t *BotTransport) Edit(ref relay.MessageRef, text string, ctl relay.Controls) error {
	_, err := t.bot.Edit(editable(ref), text, sendOptions(ctl)...)
	return err
}

// Ping calls getMe to verify the Bot API is reachable with the configured
// token. It bypasses the telebot client so the context deadline applies.
func (t *BotTransport) Ping(ctx context.Context) error {
	if strings.TrimSpace(t.token) == "" {
		return fmt.Errorf("telegram: empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/getMe", t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("getMe status: %s", resp.Status)
	}
	return nil
}

func sendOptions(ctl relay.Controls) []any {
	if markup := markupFor(ctl); markup != nil {
		return []any{markup}
	}
	return nil
}

func refOf(msg *tele.Message) relay.MessageRef {
	if msg == nil {
		return relay.MessageRef{}
	}
	ref := relay.MessageRef{MessageID: msg.ID}
	if msg.Chat != nil {
		ref.ChatID = msg.Chat.ID
	}
	return ref
}

// editable adapts a MessageRef to telebot's Editable.
type editable relay.MessageRef

func (e editable) MessageSig() (string, int64) {
	return strconv.Itoa(e.MessageID), e.ChatID
}

// deleteWebhook unregisters the webhook directly through the Bot API. Used
// best-effort on shutdown so a restarted instance can re-register cleanly.
func deleteWebhook(token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
