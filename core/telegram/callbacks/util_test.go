package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{"nil", nil, "", ""},
		{"raw unique only", &tele.Callback{Data: "\ffree_phone"}, "free_phone", ""},
		{"raw with payload", &tele.Callback{Data: "\ffree_username|42"}, "free_username", "42"},
		{"payload with separator", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
		{"plain data", &tele.Callback{Data: "legacy"}, "legacy", ""},
		{"matched unique", &tele.Callback{Unique: "free_phone", Data: "x"}, "free_phone", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}

func TestCallbackKey(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Token: "1:t", Offline: true})
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	c := b.NewContext(tele.Update{Callback: &tele.Callback{Data: "\ffree_username|42"}})
	if got := CallbackKey(c); got != "free_username" {
		t.Fatalf("CallbackKey = %q", got)
	}
	if got := CallbackKey(b.NewContext(tele.Update{})); got != "" {
		t.Fatalf("CallbackKey without callback = %q", got)
	}
}
