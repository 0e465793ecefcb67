package bot

import (
	"fmt"
	"strings"
	"time"

	"announcebot/broadcast"
	"announcebot/core/telegram/format"
)

const announcementHeader = "📢 <b>Объявление</b>\n\n"

// formatAnnouncement renders the broadcast body: fixed header plus the
// operator's text with HTML metacharacters escaped.
func formatAnnouncement(body string) string {
	return announcementHeader + format.EscapeHTML(body)
}

func progressText(done, total int) string {
	return fmt.Sprintf("📤 Отправка... %d из %d", done, total)
}

// renderReport builds the final status message shown to the operator.
func renderReport(r broadcast.Report) string {
	var sb strings.Builder
	if r.Cancelled {
		sb.WriteString("⚠️ <b>Рассылка прервана.</b>\n\n")
	} else {
		sb.WriteString("✅ <b>Рассылка завершена!</b>\n\n")
	}
	fmt.Fprintf(&sb, "Отправлено: %d из %d\n", r.Sent, r.Total)
	if r.Failed > 0 {
		fmt.Fprintf(&sb, "Ошибок: %d\n", r.Failed)
	}
	if r.Blocked > 0 {
		fmt.Fprintf(&sb, "🚫 Заблокировали бота: %d\n", r.Blocked)
	}
	fmt.Fprintf(&sb, "Время: %s", r.Elapsed.Round(100*time.Millisecond))

	if len(r.Errors) > 0 {
		sb.WriteString("\n\n<b>Ошибки:</b>\n")
		for _, line := range r.Errors {
			sb.WriteString("• " + format.EscapeHTML(line) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
