package telegram

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/relay"
	"github.com/m3rciful/relaybot/core/telegram/keyboard"
)

// Callback uniques for operator inline controls. The payload carries the
// target user id; handlers never match on button captions.
const (
	cbClaim = "claim"
	cbClose = "close"
)

// MainMenu is the persistent reply keyboard shown to end users. Every button
// sends a literal slash command, so presses arrive through the normal command
// routes regardless of the caption text.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{"/support", "/faq"},
		[]string{"/schedule", "/payment"},
		[]string{"/help"},
	)
}

// markupFor renders relay controls as Telegram reply markup, nil when none.
func markupFor(ctl relay.Controls) *tele.ReplyMarkup {
	if ctl.None() {
		return nil
	}
	if ctl.MainMenu {
		return MainMenu()
	}

	var buttons []keyboard.InlineBtn
	if ctl.ClaimUser != 0 {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   "✅ Claim",
			Unique: cbClaim,
			Data:   strconv.FormatInt(ctl.ClaimUser, 10),
		})
	}
	if ctl.CloseUser != 0 {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   "❌ Close",
			Unique: cbClose,
			Data:   strconv.FormatInt(ctl.CloseUser, 10),
		})
	}
	if len(buttons) == 0 {
		return nil
	}
	return keyboard.InlineButtonsRow(buttons...)
}
