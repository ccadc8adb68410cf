package handler

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviefinder-tg-bot/internal/config"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

func TestResultsKeyboard(t *testing.T) {
	results := []search.Result{
		{ChannelID: -100, MessageID: 1, Title: "Pathaan 2023 Hindi"},
		{ChannelID: -100, MessageID: 2, Title: "Pathan Full Movie Hindi"},
	}
	kb := resultsKeyboard(results, "pathan", []string{"Bengali", "Hindi"})
	require.NotNil(t, kb)

	// one row per result, one language row, one close row
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Equal(t, "movie:-100:1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "movie:-100:2", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "lang:Bengali:pathan", kb.InlineKeyboard[2][0].CallbackData)
	assert.Equal(t, "lang:Hindi:pathan", kb.InlineKeyboard[2][1].CallbackData)
	assert.Equal(t, "close", kb.InlineKeyboard[3][0].CallbackData)
}

func TestResultsKeyboardWithoutLanguageRow(t *testing.T) {
	results := []search.Result{{ChannelID: -100, MessageID: 1, Title: "Jawan"}}
	kb := resultsKeyboard(results, "jawan", nil)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
}

func TestResultsKeyboardTruncatesLongTitles(t *testing.T) {
	long := "An Exceedingly Long Movie Title That Never Seems To End 2023 Hindi"
	kb := resultsKeyboard([]search.Result{{ChannelID: -100, MessageID: 1, Title: long}}, "q", nil)
	assert.LessOrEqual(t, len([]rune(kb.InlineKeyboard[0][0].Text)), maxButtonTitleLen)
}

func TestRatingKeyboard(t *testing.T) {
	kb := ratingKeyboard("moviefinderbot", -1001234567890, 42)
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "like:-1001234567890:42", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "dislike:-1001234567890:42", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "https://t.me/moviefinderbot?start=watch_-1001234567890_42", kb.InlineKeyboard[1][0].URL)
}

func TestWelcomeKeyboard(t *testing.T) {
	assert.Nil(t, welcomeKeyboard(&config.Config{}))

	kb := welcomeKeyboard(&config.Config{UpdateChannelURL: "https://t.me/updates", ContactURL: "https://t.me/admin"})
	require.NotNil(t, kb)
	assert.Len(t, kb.InlineKeyboard, 2)
}

func TestEscalationKeyboard(t *testing.T) {
	kb := escalationKeyboard(777000, "pathan")
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "has:777000:pathan", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "no:777000:pathan", kb.InlineKeyboard[0][1].CallbackData)
	assert.Equal(t, "soon:777000:pathan", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "wrong:777000:pathan", kb.InlineKeyboard[1][1].CallbackData)
}

func TestCallbackDataStaysUnderTelegramCap(t *testing.T) {
	// Bengali runes are 3 bytes each; a rune-counted cut would blow the
	// 64-byte callback_data limit and Telegram would reject the keyboard.
	long := "পাঠান ফুল মুভি বাংলা ডাবিং ডাউনলোড লিংক"

	check := func(kb *tg.InlineKeyboardMarkup) {
		t.Helper()
		for _, row := range kb.InlineKeyboard {
			for _, btn := range row {
				if btn.CallbackData == "" {
					continue
				}
				assert.LessOrEqual(t, len(btn.CallbackData), 64, "callback_data %q", btn.CallbackData)
				assert.True(t, utf8.ValidString(btn.CallbackData), "callback_data %q", btn.CallbackData)
			}
		}
	}

	results := []search.Result{{ChannelID: -100, MessageID: 1, Title: "Pathaan"}}
	check(resultsKeyboard(results, long, []string{"Bengali", "Hindi", "English"}))
	check(escalationKeyboard(-1001234567890, long))
}

func TestTruncateBytesKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "পা", truncateBytes("পাঠান", 7), "cut inside a rune backs up to its start")
	assert.Equal(t, "পাঠান", truncateBytes("পাঠান", 64))
	assert.Equal(t, "", truncateBytes("পাঠান", 0))
	assert.Equal(t, "", truncateBytes("পাঠান", -3))
}

func TestGoogleSearchURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=pathaan+full+movie", googleSearchURL("pathaan full movie"))
}
