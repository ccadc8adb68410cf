package handler

import (
	"fmt"
	"unicode/utf8"

	"moviefinder-tg-bot/internal/config"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

// Telegram caps callback_data at 64 bytes.
const maxCallbackDataLen = 64

const maxButtonTitleLen = 40

func resultsKeyboard(results []search.Result, rawQuery string, languages []string) *tg.InlineKeyboardMarkup {
	rows := make([][]tg.InlineKeyboardButton, 0, len(results)+2)
	for _, r := range results {
		rows = append(rows, []tg.InlineKeyboardButton{{
			Text:         truncate(r.Title, maxButtonTitleLen),
			CallbackData: fmt.Sprintf("movie:%d:%d", r.ChannelID, r.MessageID),
		}})
	}
	if len(languages) > 0 {
		langRow := make([]tg.InlineKeyboardButton, 0, len(languages))
		for _, lang := range languages {
			langRow = append(langRow, tg.InlineKeyboardButton{
				Text:         lang,
				CallbackData: callbackWithQuery(fmt.Sprintf("lang:%s:", lang), rawQuery),
			})
		}
		rows = append(rows, langRow)
	}
	rows = append(rows, []tg.InlineKeyboardButton{{Text: "Close", CallbackData: "close"}})
	kb := tg.NewInlineKeyboardMarkup(rows)
	return &kb
}

func ratingKeyboard(botUsername string, channelID int64, messageID int) *tg.InlineKeyboardMarkup {
	kb := tg.NewInlineKeyboardMarkup([][]tg.InlineKeyboardButton{
		{
			{Text: "👍", CallbackData: fmt.Sprintf("like:%d:%d", channelID, messageID)},
			{Text: "👎", CallbackData: fmt.Sprintf("dislike:%d:%d", channelID, messageID)},
		},
		{
			{Text: "🔗 Share", URL: search.DeepLink(botUsername, channelID, messageID)},
		},
	})
	return &kb
}

func welcomeKeyboard(cfg *config.Config) *tg.InlineKeyboardMarkup {
	rows := [][]tg.InlineKeyboardButton{}
	if cfg.UpdateChannelURL != "" {
		rows = append(rows, []tg.InlineKeyboardButton{{Text: "Update channel", URL: cfg.UpdateChannelURL}})
	}
	if cfg.ContactURL != "" {
		rows = append(rows, []tg.InlineKeyboardButton{{Text: "Contact admin", URL: cfg.ContactURL}})
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tg.NewInlineKeyboardMarkup(rows)
	return &kb
}

func googleKeyboard(rawQuery string) *tg.InlineKeyboardMarkup {
	kb := tg.NewInlineKeyboardMarkup([][]tg.InlineKeyboardButton{{
		{Text: "Search on Google 🔍", URL: googleSearchURL(rawQuery)},
	}})
	return &kb
}

func escalationKeyboard(userChatID int64, rawQuery string) *tg.InlineKeyboardMarkup {
	kb := tg.NewInlineKeyboardMarkup([][]tg.InlineKeyboardButton{
		{
			{Text: "✅ We have it", CallbackData: callbackWithQuery(fmt.Sprintf("has:%d:", userChatID), rawQuery)},
			{Text: "❌ We don't", CallbackData: callbackWithQuery(fmt.Sprintf("no:%d:", userChatID), rawQuery)},
		},
		{
			{Text: "⏳ Coming soon", CallbackData: callbackWithQuery(fmt.Sprintf("soon:%d:", userChatID), rawQuery)},
			{Text: "✏️ Wrong name", CallbackData: callbackWithQuery(fmt.Sprintf("wrong:%d:", userChatID), rawQuery)},
		},
	})
	return &kb
}

// callbackWithQuery appends a free-text query to a callback prefix, cutting
// the query so the whole payload stays under the 64-byte cap. The cut lands
// on a rune boundary so multi-byte scripts never get split mid-character.
func callbackWithQuery(prefix, rawQuery string) string {
	return prefix + truncateBytes(rawQuery, maxCallbackDataLen-len(prefix))
}

func truncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
