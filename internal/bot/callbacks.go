package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func menuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Subscribe", cmdSubscribe),
			tgbotapi.NewInlineKeyboardButtonData("Unsubscribe", cmdUnsubscribe),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Check now", cmdNews),
			tgbotapi.NewInlineKeyboardButtonData("Status", cmdStatus),
		),
	)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(chatID, "Access denied.")
		return
	}

	b.log.Info("callback",
		"action", cb.Data,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch cb.Data {
	case cmdSubscribe:
		b.handleSubscribe(ctx, chatID)
	case cmdUnsubscribe:
		b.handleUnsubscribe(ctx, chatID)
	case cmdNews:
		b.handleNews(chatID)
	case cmdStatus:
		b.handleStatus(ctx, chatID)
	}
}
