package relay

import "fmt"

const (
	textWelcome = "👋 Welcome!\n\n" +
		"This bot connects you with our support operator.\n" +
		"Use the menu below or type /help to see what it can do."

	textHelp = "Available commands:\n" +
		"/menu — show the main menu\n" +
		"/faq — frequently asked questions\n" +
		"/schedule — working hours\n" +
		"/payment — payment details\n" +
		"/support — talk to the operator\n" +
		"/finish — end the current chat"

	textFAQ = "❓ FAQ\n\n" +
		"Q: How fast do you answer?\n" +
		"A: Usually within a few minutes during working hours.\n\n" +
		"Q: Is the chat anonymous?\n" +
		"A: The operator only sees your numeric id."

	textSchedule = "🕘 Working hours\n\nThe operator is available from %02d:00 to %02d:00."

	textPayment = "💳 Payment\n\n" +
		"We accept bank transfer and card payments.\n" +
		"Ask the operator for an invoice via /support."

	textAckInHours = "✅ Your request has been sent to the operator.\n" +
		"You will get a reply here shortly."

	textAckOffHours = "🌙 Your request has been recorded.\n" +
		"We are currently offline; the operator will reply during working hours."

	textAlreadyActive = "You are already connected to the operator. Just type your message."

	textChatStarted = "💬 Operator joined the chat. You can talk now; send /finish when you are done."

	textChatClosed = "✅ Chat closed. Use /support if you need anything else."

	textNothingToClose = "There is no open chat to finish. Use /support to start one."

	textFallback = "Sorry, I did not understand that. Please use the menu or /help."

	textPendingWait = "Your request is already queued. The operator will reply here soon."

	textNoSelection = "⚠️ No user selected. Press a claim button under a request first."
)

func textOperatorNotify(user int64) string {
	return fmt.Sprintf("🆘 Support request from %d", user)
}

func textOperatorClaimed(user int64) string {
	return fmt.Sprintf("✅ You are now talking to %d. Send messages here; send the close keyword to finish.", user)
}

func textOperatorClosed(user int64) string {
	return fmt.Sprintf("✅ Chat with %d closed.", user)
}

func textOperatorFinished(user int64) string {
	return fmt.Sprintf("ℹ️ User %d finished the chat.", user)
}

func textForwarded(user int64, text string) string {
	return fmt.Sprintf("%d: %s", user, text)
}

func textForwardedCaption(user int64, caption string) string {
	if caption == "" {
		return fmt.Sprintf("%d sent a file", user)
	}
	return fmt.Sprintf("%d: %s", user, caption)
}
