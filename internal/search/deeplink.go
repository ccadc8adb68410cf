package search

import (
	"fmt"
	"strconv"
	"strings"
)

// Deep-link payloads pack both halves of the source id. The bot started out
// with one implicit channel; payloads carry the channel id explicitly so
// multi-channel sourcing keeps old links decodable.
const startPrefix = "watch"

// StartPayload encodes a source post as a /start payload: watch_<chan>_<msg>.
func StartPayload(channelID int64, messageID int) string {
	return fmt.Sprintf("%s_%d_%d", startPrefix, channelID, messageID)
}

// DeepLink builds the t.me URL that replays a source post to whoever opens it.
func DeepLink(botUsername string, channelID int64, messageID int) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, StartPayload(channelID, messageID))
}

// ParseStartPayload reconstructs the (channel, message) pair from a /start
// payload. A wrong field count or non-numeric field is an error, never a
// silently wrong entry.
func ParseStartPayload(payload string) (channelID int64, messageID int, err error) {
	parts := strings.Split(payload, "_")
	if len(parts) != 3 || parts[0] != startPrefix {
		return 0, 0, fmt.Errorf("malformed start payload %q", payload)
	}
	channelID, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed channel id in payload %q", payload)
	}
	messageID, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed message id in payload %q", payload)
	}
	return channelID, messageID, nil
}
