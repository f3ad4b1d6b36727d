package transport

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestTelegramText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		in       string
		want     string
		entities []tgbotapi.MessageEntity
	}{
		{
			name: "plain",
			in:   "call mom\n",
			want: "call mom",
		},
		{
			name: "header and code",
			in:   "⏰ **Reminder**\n\npay `rent`",
			want: "⏰ Reminder\n\npay rent",
			entities: []tgbotapi.MessageEntity{
				{Type: "bold", Offset: 2, Length: 8},
				{Type: "code", Offset: 16, Length: 4},
			},
		},
		{
			name: "code before bold keeps offsets",
			in:   "`a` __b__",
			want: "a b",
			entities: []tgbotapi.MessageEntity{
				{Type: "code", Offset: 0, Length: 1},
				{Type: "bold", Offset: 2, Length: 1},
			},
		},
		{
			name: "surrogate pairs",
			in:   "🔔 **now**",
			want: "🔔 now",
			entities: []tgbotapi.MessageEntity{
				{Type: "bold", Offset: 3, Length: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, entities := telegramText(tt.in)
			if got != tt.want {
				t.Fatalf("text = %q, want %q", got, tt.want)
			}
			if len(entities) != len(tt.entities) {
				t.Fatalf("entities = %+v, want %+v", entities, tt.entities)
			}
			for i, e := range entities {
				w := tt.entities[i]
				if e.Type != w.Type || e.Offset != w.Offset || e.Length != w.Length {
					t.Fatalf("entity %d = %+v, want %+v", i, e, w)
				}
			}
		})
	}
}
