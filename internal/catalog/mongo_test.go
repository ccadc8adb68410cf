package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUpsertUpdateWithYear(t *testing.T) {
	e := NewEntry(-100, 1, "Pathaan 2023 Hindi", nil)
	u := upsertUpdate(e, time.Now())

	set, ok := u["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, 2023, set["year"])
	assert.NotContains(t, u, "$unset")

	// Counters are insert-only so a re-index never resets them.
	onInsert, ok := u["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, int64(0), onInsert["view_count"])
	assert.Equal(t, int64(0), onInsert["like_count"])
	assert.Equal(t, int64(0), onInsert["dislike_count"])
}

func TestUpsertUpdateWithoutYear(t *testing.T) {
	e := NewEntry(-100, 1, "Pathaan Hindi WEB-DL", nil)
	u := upsertUpdate(e, time.Now())

	set, ok := u["$set"].(bson.M)
	require.True(t, ok)
	assert.NotContains(t, set, "year", "absent year must not be stored as 0")
	assert.Equal(t, bson.M{"year": ""}, u["$unset"], "stale year from a previous index is cleared")
}
