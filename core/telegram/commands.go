package telegram

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/relaybot/core/logger"
)

// SetupCommands publishes the user-facing command list to the Telegram menu.
// The operator-only /history command is deliberately left out.
func SetupCommands(bot *tele.Bot) {
	commands := []tele.Command{
		{Text: "start", Description: "Restart the bot"},
		{Text: "menu", Description: "Main menu"},
		{Text: "faq", Description: "Frequently asked questions"},
		{Text: "schedule", Description: "Working hours"},
		{Text: "payment", Description: "Payment details"},
		{Text: "support", Description: "Talk to the operator"},
		{Text: "finish", Description: "End the current chat"},
		{Text: "help", Description: "What this bot can do"},
	}
	if err := bot.SetCommands(commands); err != nil {
		logger.TG.Warn("failed to publish commands",
			slog.String("event", "tg.set_commands"),
			slog.String("err", err.Error()),
		)
	}
}
