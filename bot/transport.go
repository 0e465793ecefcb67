package bot

import (
	"context"

	"announcebot/broadcast"

	tele "gopkg.in/telebot.v4"
)

// transport delivers broadcast payloads through the Telegram API.
type transport struct {
	bot *tele.Bot
}

func (t *transport) Send(_ context.Context, target broadcast.Target, p broadcast.Payload, threadID *int) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if threadID != nil {
		opts.ThreadID = *threadID
	}

	var what any
	if p.Media != nil {
		file := tele.File{FileID: p.Media.FileID}
		switch p.Media.Kind {
		case broadcast.MediaPhoto:
			what = &tele.Photo{File: file, Caption: p.Media.Caption}
		case broadcast.MediaVideo:
			what = &tele.Video{File: file, Caption: p.Media.Caption}
		case broadcast.MediaAudio:
			what = &tele.Audio{File: file, Caption: p.Media.Caption}
		default:
			what = &tele.Document{File: file, Caption: p.Media.Caption}
		}
	} else {
		what = p.Text
	}

	_, err := t.bot.Send(&tele.Chat{ID: target.ID}, what, opts)
	return err
}
