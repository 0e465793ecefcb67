package bot

import (
	"errors"
	"time"

	"announcebot/core/logger"
	tghelpers "announcebot/core/telegram/helpers"
	"announcebot/store"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// handleMyChatMember keeps the group registry in sync with the bot's
// own membership: joining a group registers it, leaving removes it.
func (b *Bot) handleMyChatMember(c tele.Context) error {
	upd := c.ChatMember()
	if upd == nil || upd.Chat == nil || upd.NewChatMember == nil {
		return nil
	}
	chat := upd.Chat
	if chat.Type != tele.ChatGroup && chat.Type != tele.ChatSuperGroup {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	switch upd.NewChatMember.Role {
	case tele.Member, tele.Administrator:
		err := b.groups.Add(store.Group{
			ID:      chat.ID,
			Title:   chat.Title,
			AddedAt: time.Now().UTC(),
		})
		if err != nil && !errors.Is(err, store.ErrGroupExists) {
			return err
		}
		if err == nil {
			logger.Info(ctx, "store", "group.joined",
				slog.Int64("group_id", chat.ID),
				slog.String("title", chat.Title),
			)
		}
	case tele.Left, tele.Kicked:
		err := b.groups.Remove(chat.ID)
		if err != nil && !errors.Is(err, store.ErrGroupNotFound) {
			return err
		}
		if err == nil {
			logger.Info(ctx, "store", "group.left",
				slog.Int64("group_id", chat.ID),
			)
		}
	}
	return nil
}
