package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/ticketbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerModes(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll, LongPollTimeoutSeconds: 25},
	}).(*tele.LongPoller)
	if !ok || lp.Timeout != 25*time.Second || len(lp.AllowedUpdates) != 2 {
		t.Fatalf("long poller = %+v", lp)
	}

	wh, ok := BuildPoller(PollerOptions{
		Telegram: coreconfig.TelegramConfig{RunMode: "WEBHOOK"},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example/hook", SecretToken: "s3"},
	}).(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("webhook = %+v", wh)
	}
}

func TestBuildPollerWrapsFilter(t *testing.T) {
	p := BuildPoller(PollerOptions{Filter: PrivateChatsOnly})
	mp, ok := p.(*tele.MiddlewarePoller)
	if !ok {
		t.Fatalf("poller = %T", p)
	}
	if _, ok := unwrapPoller(mp).(*tele.LongPoller); !ok {
		t.Fatalf("inner poller = %T", mp.Poller)
	}
}

func TestPrivateChatsOnly(t *testing.T) {
	private := &tele.Chat{ID: 1, Type: tele.ChatPrivate}
	group := &tele.Chat{ID: -5, Type: tele.ChatGroup}

	cases := []struct {
		name string
		upd  tele.Update
		want bool
	}{
		{"private message", tele.Update{Message: &tele.Message{Chat: private}}, true},
		{"group message", tele.Update{Message: &tele.Message{Chat: group}}, false},
		{"private callback", tele.Update{Callback: &tele.Callback{Message: &tele.Message{Chat: private}}}, true},
		{"group callback", tele.Update{Callback: &tele.Callback{Message: &tele.Message{Chat: group}}}, false},
		{"other update", tele.Update{}, false},
	}
	for _, tc := range cases {
		if got := PrivateChatsOnly(&tc.upd); got != tc.want {
			t.Errorf("%s: got %v", tc.name, got)
		}
	}
}
