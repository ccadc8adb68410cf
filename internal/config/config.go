package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the bot.
type Config struct {
	// BotToken is the Telegram Bot API token.
	BotToken string

	// BotUsername is the bot's @username without the leading @, used to build
	// deep links of the form https://t.me/<username>?start=watch_...
	BotUsername string

	// MongoURI is the MongoDB connection string.
	MongoURI string

	// ChannelIDs lists the source channels whose posts are indexed.
	ChannelIDs []int64

	// AdminIDs lists users allowed to run admin commands and receive
	// no-match escalations.
	AdminIDs []int64

	// ResultLimit caps how many results a single search returns.
	ResultLimit int

	// BroadLimit caps the candidate pool handed to the fuzzy stage.
	BroadLimit int

	// ScoreCutoff is the minimum fuzzy similarity (0-100) for a candidate
	// to appear in results.
	ScoreCutoff int

	// Languages is the ordered tag vocabulary for language extraction.
	Languages []string

	// SearchCooldown is the minimum interval between searches per user.
	SearchCooldown time.Duration

	// MatchWorkers bounds how many fuzzy-scoring stages may run at once.
	MatchWorkers int

	// Port is the HTTP server port.
	Port int

	// UpdateChannelURL and ContactURL feed the /start keyboard.
	UpdateChannelURL string
	ContactURL       string

	// StartPicURL, when set, makes /start reply with a photo caption instead
	// of a plain message.
	StartPicURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	username := strings.TrimSpace(strings.TrimPrefix(os.Getenv("BOT_USERNAME"), "@"))
	if username == "" {
		return nil, fmt.Errorf("BOT_USERNAME is required")
	}

	channels, err := parseIDList(os.Getenv("CHANNEL_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_IDS: %w", err)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("CHANNEL_IDS is required")
	}

	admins, err := parseIDList(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	resultLimit, err := intEnv("RESULT_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	broadLimit, err := intEnv("BROAD_LIMIT", 500)
	if err != nil {
		return nil, err
	}
	cutoff, err := intEnv("SCORE_CUTOFF", 60)
	if err != nil {
		return nil, err
	}
	if cutoff < 0 || cutoff > 100 {
		return nil, fmt.Errorf("SCORE_CUTOFF must be within [0, 100], got %d", cutoff)
	}
	workers, err := intEnv("MATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}

	cooldown := 3 * time.Second
	if v := strings.TrimSpace(os.Getenv("SEARCH_COOLDOWN")); v != "" {
		cooldown, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_COOLDOWN: %w", err)
		}
	}

	languages := []string{"Bengali", "Hindi", "English"}
	if v := strings.TrimSpace(os.Getenv("LANGUAGES")); v != "" {
		languages = nil
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				languages = append(languages, tag)
			}
		}
	}

	updateChannel := strings.TrimSpace(os.Getenv("UPDATE_CHANNEL_URL"))
	contact := strings.TrimSpace(os.Getenv("CONTACT_URL"))

	return &Config{
		BotToken:         token,
		BotUsername:      username,
		MongoURI:         strings.TrimSpace(os.Getenv("MONGODB_URI")),
		ChannelIDs:       channels,
		AdminIDs:         admins,
		ResultLimit:      resultLimit,
		BroadLimit:       broadLimit,
		ScoreCutoff:      cutoff,
		Languages:        languages,
		SearchCooldown:   cooldown,
		MatchWorkers:     workers,
		Port:             port,
		UpdateChannelURL: updateChannel,
		ContactURL:       contact,
		StartPicURL:      strings.TrimSpace(os.Getenv("START_PIC")),
	}, nil
}

// IsSourceChannel reports whether id is one of the configured source channels.
func (c *Config) IsSourceChannel(id int64) bool {
	for _, ch := range c.ChannelIDs {
		if ch == id {
			return true
		}
	}
	return false
}

// IsAdmin reports whether id belongs to a configured admin.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func parseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
