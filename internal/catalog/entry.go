package catalog

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry is one indexed source post. An entry is uniquely identified by the
// (channel_id, message_id) pair; the normalized key is always re-derived from
// the raw title at write time and is not unique across entries.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ChannelID int64              `bson:"channel_id"`
	MessageID int                `bson:"message_id"`
	RawTitle  string             `bson:"raw_title"`
	Key       string             `bson:"normalized_key"`
	Year      int                `bson:"year,omitempty"`
	Language  string             `bson:"language"`
	Views     int64              `bson:"view_count"`
	Likes     int64              `bson:"like_count"`
	Dislikes  int64              `bson:"dislike_count"`
	Raters    []int64            `bson:"raters,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// NewEntry derives an entry from a raw source post. Year and language come
// from the same raw text as the key, independently of normalization.
func NewEntry(channelID int64, messageID int, rawText string, vocab []string) *Entry {
	e := &Entry{
		ChannelID: channelID,
		MessageID: messageID,
		RawTitle:  rawText,
		Key:       Normalize(rawText),
		Language:  ExtractLanguage(rawText, vocab),
	}
	if year, ok := ExtractYear(rawText); ok {
		e.Year = year
	}
	return e
}

// Title returns the display title: the first non-empty line of the raw text.
func (e *Entry) Title() string {
	for _, line := range strings.Split(e.RawTitle, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return strings.TrimSpace(e.RawTitle)
}
