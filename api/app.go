package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"moviefinder-tg-bot/internal/catalog"
	"moviefinder-tg-bot/internal/config"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

// store is the catalog surface the handlers consume: the search-facing Store
// plus the user, feedback and stats collections.
type store interface {
	catalog.Store
	TouchUser(ctx context.Context, userID int64) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountEntries(ctx context.Context) (int64, error)
	CountFeedback(ctx context.Context) (int64, error)
	AddFeedback(ctx context.Context, fb catalog.Feedback) error
}

// App wires the bot surface together: the Telegram client, the catalog store
// and the search engine, plus the per-user search cooldown cache.
type App struct {
	cfg       *config.Config
	bot       *tg.Client
	db        store
	engine    *search.Engine
	cooldowns *cache.Cache
	log       zerolog.Logger
}

func New(cfg *config.Config, bot *tg.Client, db *catalog.Mongo, engine *search.Engine, logger zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		bot:    bot,
		db:     db,
		engine: engine,
		// Bounded by TTL: entries evict themselves, the map never grows
		// past the active user set of one cooldown window.
		cooldowns: cache.New(cfg.SearchCooldown, 5*time.Minute),
		log:       logger.With().Str("component", "webhook").Logger(),
	}
}

type update struct {
	UpdateID      int            `json:"update_id"`
	Message       *message       `json:"message"`
	ChannelPost   *message       `json:"channel_post"`
	CallbackQuery *callbackQuery `json:"callback_query"`
}

type user struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type message struct {
	MessageID int    `json:"message_id"`
	Chat      chat   `json:"chat"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	From      *user  `json:"from"`
}

func (m *message) text() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

type callbackQuery struct {
	ID      string   `json:"id"`
	From    user     `json:"from"`
	Data    string   `json:"data"`
	Message *message `json:"message"`
}

// Webhook handles one Telegram update per request.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 2<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var upd update
	if err := json.Unmarshal(body, &upd); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 9*time.Second)
	defer cancel()

	switch {
	case upd.ChannelPost != nil:
		a.handleChannelPost(ctx, upd.ChannelPost)
	case upd.Message != nil:
		a.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		a.handleCallback(ctx, upd.CallbackQuery)
	}
	w.WriteHeader(http.StatusOK)
}
