package bot

import (
	"strings"
	"testing"
	"time"

	"announcebot/broadcast"
)

func TestSplitHead(t *testing.T) {
	head, body := splitHead("  новости,важное Срочная новость для всех!  ")
	if head != "новости,важное" {
		t.Fatalf("head = %q", head)
	}
	if body != "Срочная новость для всех!" {
		t.Fatalf("body = %q", body)
	}

	head, body = splitHead("одинокий_токен")
	if head != "одинокий_токен" || body != "" {
		t.Fatalf("single token: head=%q body=%q", head, body)
	}
}

func TestParseCSV(t *testing.T) {
	got := parseCSV("a, b ,,c")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("parseCSV = %v", got)
	}
	if parseCSV("  ") != nil {
		t.Fatal("blank input should yield nil")
	}
}

func TestFormatAnnouncementEscapesBody(t *testing.T) {
	got := formatAnnouncement("a <b> & c")
	if !strings.HasPrefix(got, "📢 <b>Объявление</b>\n\n") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.HasSuffix(got, "a &lt;b&gt; &amp; c") {
		t.Fatalf("body not escaped: %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	r := broadcast.Report{
		Total:   10,
		Sent:    7,
		Failed:  2,
		Blocked: 1,
		Elapsed: 1500 * time.Millisecond,
		Errors:  []string{"chat <one> (5): boom"},
	}
	got := renderReport(r)

	for _, want := range []string{
		"Рассылка завершена",
		"Отправлено: 7 из 10",
		"Ошибок: 2",
		"🚫 Заблокировали бота: 1",
		"chat &lt;one&gt; (5): boom",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("report missing %q:\n%s", want, got)
		}
	}

	cancelled := renderReport(broadcast.Report{Total: 4, Sent: 2, Cancelled: true})
	if !strings.Contains(cancelled, "прервана") {
		t.Fatalf("cancelled report = %q", cancelled)
	}
	if strings.Contains(cancelled, "Ошибок") {
		t.Fatalf("zero failures should be omitted: %q", cancelled)
	}
}
