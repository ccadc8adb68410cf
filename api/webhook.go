package handler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"moviefinder-tg-bot/internal/catalog"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

const (
	msgWelcome       = "Send me a movie name and I will find it for you."
	msgLoading       = "🔎 Searching, please wait..."
	msgPickResult    = "Your movie may be one of these, pick from the list:"
	msgNoResults     = "No results found. The admins have been notified. You can also try Google below."
	msgStoreTrouble  = "Something went wrong on our side, please try again in a minute."
	msgCooldown      = "Please wait a moment before searching again."
	msgBrokenLink    = "This link looks broken, please search again."
	msgGoneEntry     = "That post is not available anymore."
	msgFeedbackUsage = "Write your feedback after the command: /feedback your message"
	msgFeedbackOK    = "Thanks for your feedback! 💖"
)

func (a *App) handleChannelPost(ctx context.Context, msg *message) {
	if !a.cfg.IsSourceChannel(msg.Chat.ID) {
		return
	}
	text := msg.text()
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := a.engine.Index(ctx, msg.Chat.ID, msg.MessageID, text); err != nil {
		a.log.Error().Err(err).Int64("channel", msg.Chat.ID).Int("message", msg.MessageID).Msg("indexing channel post failed")
	}
}

func (a *App) handleMessage(ctx context.Context, msg *message) {
	if msg.From == nil || msg.Chat.Type != "private" {
		return
	}
	text := strings.TrimSpace(msg.text())
	if text == "" {
		return
	}

	if err := a.db.TouchUser(ctx, msg.From.ID); err != nil {
		a.log.Warn().Err(err).Int64("user", msg.From.ID).Msg("touch user failed")
	}

	switch {
	case text == "/start":
		a.sendWelcome(ctx, msg.Chat.ID)
	case strings.HasPrefix(text, "/start "):
		a.deliverByPayload(ctx, msg.Chat.ID, strings.TrimSpace(strings.TrimPrefix(text, "/start ")))
	case strings.HasPrefix(text, "/feedback"):
		a.handleFeedback(ctx, msg)
	case strings.HasPrefix(text, "/broadcast"):
		a.handleBroadcast(ctx, msg)
	case text == "/stats":
		a.handleStats(ctx, msg)
	case strings.HasPrefix(text, "/"):
		a.reply(ctx, msg.Chat.ID, msgWelcome)
	default:
		a.handleSearch(ctx, msg, text)
	}
}

func (a *App) handleSearch(ctx context.Context, msg *message, rawQuery string) {
	userKey := strconv.FormatInt(msg.From.ID, 10)
	if _, onCooldown := a.cooldowns.Get(userKey); onCooldown {
		a.reply(ctx, msg.Chat.ID, msgCooldown)
		return
	}
	a.cooldowns.Set(userKey, time.Now(), cache.DefaultExpiration)

	loadingID, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: msg.Chat.ID, Text: msgLoading})
	if err != nil {
		a.log.Error().Err(err).Msg("sending loading placeholder failed")
	}

	results, err := a.engine.Search(ctx, rawQuery)
	if err != nil {
		// A store outage must never read as "movie not found".
		a.log.Error().Err(err).Str("query", rawQuery).Msg("search failed")
		a.editOrReply(ctx, msg.Chat.ID, loadingID, msgStoreTrouble, nil)
		return
	}

	if len(results) == 0 {
		if loadingID != 0 {
			_ = a.bot.DeleteMessage(ctx, msg.Chat.ID, loadingID)
		}
		kb := googleKeyboard(rawQuery)
		_, _ = a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: msg.Chat.ID, Text: msgNoResults, ReplyMarkup: kb})
		a.escalateNoMatch(ctx, msg, rawQuery)
		return
	}

	kb := resultsKeyboard(results, rawQuery, a.cfg.Languages)
	a.editOrReply(ctx, msg.Chat.ID, loadingID, msgPickResult, kb)
}

// escalateNoMatch notifies every admin about a query that found nothing, with
// canned-reply buttons so an admin can answer the user in one tap.
func (a *App) escalateNoMatch(ctx context.Context, msg *message, rawQuery string) {
	text := fmt.Sprintf("❗ User %d (%s) searched for: %s\nNo results were found.", msg.From.ID, msg.From.FirstName, rawQuery)
	kb := escalationKeyboard(msg.Chat.ID, rawQuery)
	for _, adminID := range a.cfg.AdminIDs {
		if _, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: adminID, Text: text, ReplyMarkup: kb}); err != nil {
			a.log.Warn().Err(err).Int64("admin", adminID).Msg("admin escalation failed")
		}
	}
}

func (a *App) sendWelcome(ctx context.Context, chatID int64) {
	kb := welcomeKeyboard(a.cfg)
	if a.cfg.StartPicURL != "" {
		err := a.bot.SendPhoto(ctx, tg.SendPhotoRequest{ChatID: chatID, Photo: a.cfg.StartPicURL, Caption: msgWelcome, ReplyMarkup: kb})
		if err == nil {
			return
		}
		a.log.Warn().Err(err).Msg("start photo failed, falling back to text")
	}
	_, _ = a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: msgWelcome, ReplyMarkup: kb})
}

// deliverByPayload resolves a deep-link payload and replays the source post.
func (a *App) deliverByPayload(ctx context.Context, chatID int64, payload string) {
	channelID, messageID, err := search.ParseStartPayload(payload)
	if err != nil {
		a.log.Debug().Err(err).Str("payload", payload).Msg("malformed deep link")
		a.reply(ctx, chatID, msgBrokenLink)
		return
	}
	a.deliver(ctx, chatID, channelID, messageID)
}

func (a *App) deliver(ctx context.Context, chatID, channelID int64, messageID int) {
	entry, err := a.db.Get(ctx, channelID, messageID)
	if err != nil {
		a.log.Error().Err(err).Msg("deep link lookup failed")
		a.reply(ctx, chatID, msgStoreTrouble)
		return
	}
	if entry == nil {
		a.reply(ctx, chatID, msgGoneEntry)
		return
	}
	kb := ratingKeyboard(a.cfg.BotUsername, channelID, messageID)
	if _, err := a.bot.CopyMessage(ctx, chatID, channelID, messageID, kb); err != nil {
		a.log.Error().Err(err).Int64("channel", channelID).Int("message", messageID).Msg("copy message failed")
		a.reply(ctx, chatID, msgGoneEntry)
		return
	}
	if err := a.db.IncrementViews(ctx, channelID, messageID); err != nil {
		a.log.Warn().Err(err).Msg("view counter bump failed")
	}
}

func (a *App) handleFeedback(ctx context.Context, msg *message) {
	rest := strings.TrimSpace(strings.TrimPrefix(msg.text(), "/feedback"))
	if rest == "" {
		a.reply(ctx, msg.Chat.ID, msgFeedbackUsage)
		return
	}
	fb := catalog.Feedback{
		UserID:    msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		Text:      rest,
	}
	if err := a.db.AddFeedback(ctx, fb); err != nil {
		a.log.Error().Err(err).Msg("storing feedback failed")
		a.reply(ctx, msg.Chat.ID, msgStoreTrouble)
		return
	}
	a.reply(ctx, msg.Chat.ID, msgFeedbackOK)
}

func (a *App) handleBroadcast(ctx context.Context, msg *message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		return
	}
	text := strings.TrimSpace(strings.TrimPrefix(msg.text(), "/broadcast"))
	if text == "" {
		a.reply(ctx, msg.Chat.ID, "Usage: /broadcast your message")
		return
	}
	ids, err := a.db.ListUserIDs(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("listing users for broadcast failed")
		a.reply(ctx, msg.Chat.ID, msgStoreTrouble)
		return
	}
	sent, failed := 0, 0
	for _, id := range ids {
		if _, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: id, Text: text}); err != nil {
			failed++
			continue
		}
		sent++
		// Small pacing delay to stay clear of flood limits.
		time.Sleep(50 * time.Millisecond)
	}
	a.reply(ctx, msg.Chat.ID, fmt.Sprintf("Broadcast delivered to %d users, %d failed.", sent, failed))
}

func (a *App) handleStats(ctx context.Context, msg *message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		return
	}
	users, err := a.db.CountUsers(ctx)
	if err != nil {
		a.reply(ctx, msg.Chat.ID, msgStoreTrouble)
		return
	}
	entries, err := a.db.CountEntries(ctx)
	if err != nil {
		a.reply(ctx, msg.Chat.ID, msgStoreTrouble)
		return
	}
	feedback, err := a.db.CountFeedback(ctx)
	if err != nil {
		a.reply(ctx, msg.Chat.ID, msgStoreTrouble)
		return
	}
	a.reply(ctx, msg.Chat.ID, fmt.Sprintf("Users: %d\nMovies: %d\nFeedback: %d", users, entries, feedback))
}

func (a *App) handleCallback(ctx context.Context, cq *callbackQuery) {
	data := strings.TrimSpace(cq.Data)

	if data == "close" {
		if cq.Message != nil {
			_ = a.bot.DeleteMessage(ctx, cq.Message.Chat.ID, cq.Message.MessageID)
		}
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}

	switch {
	case strings.HasPrefix(data, "movie:"):
		a.callbackMovie(ctx, cq, data)
	case strings.HasPrefix(data, "lang:"):
		a.callbackLanguage(ctx, cq, data)
	case strings.HasPrefix(data, "like:"), strings.HasPrefix(data, "dislike:"):
		a.callbackRate(ctx, cq, data)
	case strings.HasPrefix(data, "has:"), strings.HasPrefix(data, "no:"),
		strings.HasPrefix(data, "soon:"), strings.HasPrefix(data, "wrong:"):
		a.callbackAdminReply(ctx, cq, data)
	default:
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}
}

func (a *App) callbackMovie(ctx context.Context, cq *callbackQuery, data string) {
	channelID, messageID, ok := parseSourceRef(strings.TrimPrefix(data, "movie:"))
	if !ok || cq.Message == nil {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	a.deliver(ctx, cq.Message.Chat.ID, channelID, messageID)
	_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "Movie sent.", false)
}

func (a *App) callbackLanguage(ctx context.Context, cq *callbackQuery, data string) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 || cq.Message == nil {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	lang, rawQuery := parts[1], parts[2]

	results, err := a.engine.SearchLanguage(ctx, rawQuery, lang)
	if err != nil {
		a.log.Error().Err(err).Str("lang", lang).Str("query", rawQuery).Msg("language search failed")
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, msgStoreTrouble, true)
		return
	}
	if len(results) == 0 {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, fmt.Sprintf("Nothing found in %s for %q.", lang, rawQuery), true)
		return
	}

	kb := resultsKeyboard(results, rawQuery, nil)
	_ = a.bot.EditMessageText(ctx, tg.EditMessageTextRequest{
		ChatID:      cq.Message.Chat.ID,
		MessageID:   cq.Message.MessageID,
		Text:        fmt.Sprintf("Results (%s), pick from the list:", lang),
		ReplyMarkup: kb,
	})
	_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
}

func (a *App) callbackRate(ctx context.Context, cq *callbackQuery, data string) {
	like := strings.HasPrefix(data, "like:")
	ref := strings.TrimPrefix(strings.TrimPrefix(data, "like:"), "dislike:")
	channelID, messageID, ok := parseSourceRef(ref)
	if !ok {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	counted, err := a.db.Rate(ctx, channelID, messageID, cq.From.ID, like)
	if errors.Is(err, catalog.ErrNotFound) {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, msgGoneEntry, true)
		return
	}
	if err != nil {
		a.log.Error().Err(err).Msg("rating failed")
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, msgStoreTrouble, true)
		return
	}
	if !counted {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "You already rated this one.", false)
		return
	}
	_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "Thanks for rating!", false)
}

func (a *App) callbackAdminReply(ctx context.Context, cq *callbackQuery, data string) {
	if !a.cfg.IsAdmin(cq.From.ID) {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	action := parts[0]
	userChatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || userChatID == 0 {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	rawQuery := parts[2]

	responses := map[string]string{
		"has":   fmt.Sprintf("✅ An admin says %q is in the catalog. Try again with the exact name.", rawQuery),
		"no":    fmt.Sprintf("❌ An admin says %q is not in the catalog.", rawQuery),
		"soon":  fmt.Sprintf("⏳ An admin says %q is coming soon.", rawQuery),
		"wrong": fmt.Sprintf("✏️ An admin says the name %q looks misspelled.", rawQuery),
	}
	text, ok := responses[action]
	if !ok {
		_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "", false)
		return
	}
	if _, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: userChatID, Text: text}); err != nil {
		a.log.Warn().Err(err).Int64("user", userChatID).Msg("admin reply delivery failed")
	}
	_ = a.bot.AnswerCallbackQuery(ctx, cq.ID, "Reply sent to the user.", false)
}

func (a *App) reply(ctx context.Context, chatID int64, text string) {
	if _, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: text}); err != nil {
		a.log.Warn().Err(err).Int64("chat", chatID).Msg("reply failed")
	}
}

func (a *App) editOrReply(ctx context.Context, chatID int64, messageID int, text string, kb *tg.InlineKeyboardMarkup) {
	if messageID != 0 {
		err := a.bot.EditMessageText(ctx, tg.EditMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text, ReplyMarkup: kb})
		if err == nil {
			return
		}
	}
	if _, err := a.bot.SendMessage(ctx, tg.SendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: kb}); err != nil {
		a.log.Warn().Err(err).Int64("chat", chatID).Msg("reply failed")
	}
}

// parseSourceRef decodes "<channel>:<message>" callback payloads.
func parseSourceRef(ref string) (int64, int, bool) {
	chanStr, msgStr, ok := strings.Cut(ref, ":")
	if !ok {
		return 0, 0, false
	}
	channelID, err := strconv.ParseInt(chanStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	messageID, err := strconv.Atoi(msgStr)
	if err != nil || messageID <= 0 {
		return 0, 0, false
	}
	return channelID, messageID, true
}

func googleSearchURL(rawQuery string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(rawQuery)
}
