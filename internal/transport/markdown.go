package transport

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramHeader = "⏰ **Reminder**\n\n"

// **bold**, __bold__ or `code`
var markupRe = regexp.MustCompile("\\*\\*(.+?)\\*\\*|__(.+?)__|`([^`]+?)`")

// telegramText strips bold and code markers from text and returns the plain
// text with the matching Telegram message entities, ordered by offset.
func telegramText(text string) (string, []tgbotapi.MessageEntity) {
	var (
		b        strings.Builder
		entities []tgbotapi.MessageEntity
		offset   int
	)
	rest := text
	for {
		loc := markupRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}

		plain := rest[:loc[0]]
		b.WriteString(plain)
		offset += utf16Len(plain)

		kind, inner := "bold", ""
		switch {
		case loc[2] >= 0:
			inner = rest[loc[2]:loc[3]]
		case loc[4] >= 0:
			inner = rest[loc[4]:loc[5]]
		default:
			kind, inner = "code", rest[loc[6]:loc[7]]
		}
		n := utf16Len(inner)
		entities = append(entities, tgbotapi.MessageEntity{Type: kind, Offset: offset, Length: n})
		b.WriteString(inner)
		offset += n

		rest = rest[loc[1]:]
	}
	b.WriteString(rest)
	return strings.TrimRight(b.String(), " \n"), entities
}

// utf16Len counts UTF-16 code units, which Telegram uses for entity offsets
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
