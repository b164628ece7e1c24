package bot

import (
	"context"
	"fmt"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdStart       = "start"
	cmdHelp        = "help"
	cmdSubscribe   = "subscribe"
	cmdUnsubscribe = "unsubscribe"
	cmdNews        = "news"
	cmdStatus      = "status"
	cmdRecent      = "recent"
)

const maxRecent = 20

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, `Welcome to the commodity news bot!

You will get gold, oil, metals and mining headlines from Kazakh and international sources.

Use the buttons below or /help for the full command reference.`)
	msg.ReplyMarkup = menuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send welcome", "chat_id", chatID, "error", err)
	}

	b.handleSubscribe(ctx, chatID)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Commands:
/subscribe — receive news in this chat
/unsubscribe — stop receiving news
/news — check all sources now
/recent [n] — show the last n delivered items
/status — show the last check summary
/help — this message`)
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64) {
	added, err := b.store.AddSubscriber(ctx, chatID)
	if err != nil {
		b.log.Error("add subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to subscribe, please try again later.")
		return
	}
	if !added {
		b.reply(chatID, "You are already subscribed.")
		return
	}

	b.log.Info("subscribed", "chat_id", chatID)
	b.reply(chatID, "Subscribed! New items will arrive here.")
	b.sendRecent(ctx, chatID, b.cfg.MaxItemsOnSubscribe)
}

// sendRecent sends up to limit recent posts, oldest first, one message each.
func (b *Bot) sendRecent(ctx context.Context, chatID int64, limit int) {
	if limit <= 0 {
		return
	}
	posts, err := b.store.RecentPosts(ctx, limit)
	if err != nil {
		b.log.Error("recent posts", "chat_id", chatID, "error", err)
		return
	}
	slices.Reverse(posts)
	for _, p := range posts {
		if err := b.Send(ctx, chatID, FormatPost(p.Title, p.Link)); err != nil {
			b.log.Warn("send recent post", "chat_id", chatID, "error", err)
			return
		}
	}
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64) {
	removed, err := b.store.RemoveSubscriber(ctx, chatID)
	if err != nil {
		b.log.Error("remove subscriber", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to unsubscribe, please try again later.")
		return
	}
	if !removed {
		b.reply(chatID, "You are not subscribed.")
		return
	}
	b.log.Info("unsubscribed", "chat_id", chatID)
	b.reply(chatID, "Unsubscribed. Use /subscribe to come back.")
}

func (b *Bot) handleNews(chatID int64) {
	if b.refresher == nil {
		b.reply(chatID, "Manual refresh is not available.")
		return
	}
	if !b.refresher.TriggerNow() {
		b.reply(chatID, "A check is already running, new items will arrive shortly.")
		return
	}
	b.reply(chatID, "Checking all sources now...")
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	subs, err := b.store.ListSubscribers(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	st := Status{Subscribers: len(subs)}
	if b.refresher != nil {
		st.Running = b.refresher.Running()
		if r, ok := b.refresher.LastReport(); ok {
			st.Last = &r
		}
	}
	b.reply(chatID, FormatStatus(st))
}

func (b *Bot) handleRecent(ctx context.Context, chatID int64, args string) {
	n, err := ParseLimitArg(args, 5, maxRecent)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Usage: /recent [1-%d]", maxRecent))
		return
	}

	posts, err := b.store.RecentPosts(ctx, n)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(posts) == 0 {
		b.reply(chatID, "Nothing has been delivered yet.")
		return
	}
	if err := b.Send(ctx, chatID, FormatRecent(posts)); err != nil {
		b.log.Warn("send recent", "chat_id", chatID, "error", err)
	}
}
