package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	handler "moviefinder-tg-bot/api"
	"moviefinder-tg-bot/internal/catalog"
	"moviefinder-tg-bot/internal/config"
	"moviefinder-tg-bot/internal/search"
	"moviefinder-tg-bot/internal/tg"
)

// Local development runner: long-polls getUpdates and feeds each update into
// the webhook handler, so the same code path runs with no public URL.
func main() {
	_ = loadDotEnv(".env")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := catalog.NewMongo(ctx, cfg.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo")
	}

	engine := search.New(db, search.Options{
		ResultLimit:  cfg.ResultLimit,
		BroadLimit:   cfg.BroadLimit,
		ScoreCutoff:  cfg.ScoreCutoff,
		MatchWorkers: cfg.MatchWorkers,
		Languages:    cfg.Languages,
		Logger:       logger,
	})

	bot := tg.NewClient(cfg.BotToken)
	app := handler.New(cfg, bot, db, engine, logger)

	base := fmt.Sprintf("https://api.telegram.org/bot%s", cfg.BotToken)
	deleteWebhook(base, logger)
	poll(base, app, logger)
}

func poll(base string, app *handler.App, logger zerolog.Logger) {
	logger.Info().Msg("polling started")

	offset := 0
	client := &http.Client{Timeout: 45 * time.Second}

	for {
		u := fmt.Sprintf("%s/getUpdates?timeout=30&allowed_updates=%s&offset=%d", base, allowedUpdates(), offset)
		req, _ := http.NewRequest(http.MethodGet, u, nil)
		resp, err := client.Do(req)
		if err != nil {
			logger.Warn().Err(err).Msg("polling error")
			time.Sleep(2 * time.Second)
			continue
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		_ = resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			logger.Warn().Int("status", resp.StatusCode).Str("body", string(b)).Msg("polling status")
			time.Sleep(2 * time.Second)
			continue
		}

		var out struct {
			OK     bool              `json:"ok"`
			Result []json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(b, &out); err != nil {
			logger.Warn().Err(err).Msg("polling decode error")
			time.Sleep(2 * time.Second)
			continue
		}
		for _, raw := range out.Result {
			var upd struct {
				UpdateID int `json:"update_id"`
			}
			_ = json.Unmarshal(raw, &upd)
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}

			r := httptest.NewRequest(http.MethodPost, "http://localhost/api/webhook", bytes.NewReader(raw))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			app.Webhook(w, r)
			if w.Code != 200 {
				logger.Warn().Int("status", w.Code).Int("update_id", upd.UpdateID).Msg("handler rejected update")
			}
		}
	}
}

func deleteWebhook(base string, logger zerolog.Logger) {
	client := &http.Client{Timeout: 15 * time.Second}
	u := base + "/deleteWebhook?drop_pending_updates=false"
	req, _ := http.NewRequest(http.MethodGet, u, nil)
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("deleteWebhook error")
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	logger.Info().Int("status", resp.StatusCode).Str("body", strings.TrimSpace(string(body))).Msg("deleteWebhook")
}

func allowedUpdates() string {
	// telegram expects a json array as a query string value;
	// message, channel_post, callback_query
	return "%5B%22message%22%2C%22channel_post%22%2C%22callback_query%22%5D"
}

func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), "\"'")
		// allow "export KEY=..."
		k = strings.TrimSpace(strings.TrimPrefix(k, "export "))
		if k == "" {
			continue
		}
		if os.Getenv(k) != "" {
			continue
		}
		_ = os.Setenv(k, v)
	}
	return scanner.Err()
}
