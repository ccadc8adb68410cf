package catalog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on top of a MongoDB database. It also owns the
// feedback and users collections consumed by the bot surface.
type Mongo struct {
	client   *mongo.Client
	movies   *mongo.Collection
	users    *mongo.Collection
	feedback *mongo.Collection
}

// Feedback is one piece of user feedback.
type Feedback struct {
	UserID    int64     `bson:"user_id"`
	Username  string    `bson:"username,omitempty"`
	FirstName string    `bson:"first_name,omitempty"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

// NewMongo connects and ensures the indexes the search path relies on.
func NewMongo(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	db := client.Database("moviefinder")
	movies := db.Collection("movies")
	_, _ = movies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{bson.E{Key: "channel_id", Value: 1}, bson.E{Key: "message_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = movies.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{bson.E{Key: "normalized_key", Value: 1}}})
	_, _ = movies.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{bson.E{Key: "language", Value: 1}}})
	return &Mongo{
		client:   client,
		movies:   movies,
		users:    db.Collection("users"),
		feedback: db.Collection("feedback"),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func sourceFilter(channelID int64, messageID int) bson.M {
	return bson.M{"channel_id": channelID, "message_id": messageID}
}

func upsertUpdate(e *Entry, now time.Time) bson.M {
	set := bson.M{
		"channel_id":     e.ChannelID,
		"message_id":     e.MessageID,
		"raw_title":      e.RawTitle,
		"normalized_key": e.Key,
		"language":       e.Language,
		"updated_at":     now,
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"view_count":    int64(0),
			"like_count":    int64(0),
			"dislike_count": int64(0),
		},
	}
	if e.Year != 0 {
		set["year"] = e.Year
	} else {
		// A zero year means "absent" in the data model; clear any stale
		// value a re-index may have left behind instead of storing 0.
		update["$unset"] = bson.M{"year": ""}
	}
	return update
}

func (m *Mongo) Upsert(ctx context.Context, e *Entry) error {
	_, err := m.movies.UpdateOne(ctx,
		sourceFilter(e.ChannelID, e.MessageID),
		upsertUpdate(e, time.Now()),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert entry: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, channelID int64, messageID int) (*Entry, error) {
	var e Entry
	err := m.movies.FindOne(ctx, sourceFilter(channelID, messageID)).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get entry: %v", ErrUnavailable, err)
	}
	return &e, nil
}

func (m *Mongo) FindByKeyPrefix(ctx context.Context, prefix, language string, limit int) ([]Entry, error) {
	filter := bson.M{"normalized_key": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}
	if language != "" {
		filter["language"] = language
	}
	return m.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (m *Mongo) FindByKeyContains(ctx context.Context, substring, language string, limit int) ([]Entry, error) {
	filter := bson.M{"normalized_key": primitive.Regex{Pattern: regexp.QuoteMeta(substring)}}
	if language != "" {
		filter["language"] = language
	}
	return m.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (m *Mongo) MostViewedByLanguage(ctx context.Context, language string, limit int) ([]Entry, error) {
	filter := bson.M{}
	if language != "" {
		filter["language"] = language
	}
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "view_count", Value: -1}}).
		SetLimit(int64(limit))
	return m.find(ctx, filter, opts)
}

func (m *Mongo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Entry, error) {
	cur, err := m.movies.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrUnavailable, err)
	}
	defer cur.Close(ctx)
	var entries []Entry
	for cur.Next(ctx) {
		var e Entry
		if err := cur.Decode(&e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (m *Mongo) IncrementViews(ctx context.Context, channelID int64, messageID int) error {
	_, err := m.movies.UpdateOne(ctx,
		sourceFilter(channelID, messageID),
		bson.M{"$inc": bson.M{"view_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("%w: increment views: %v", ErrUnavailable, err)
	}
	return nil
}

func (m *Mongo) Rate(ctx context.Context, channelID int64, messageID int, userID int64, like bool) (bool, error) {
	counter := "like_count"
	if !like {
		counter = "dislike_count"
	}
	filter := sourceFilter(channelID, messageID)
	filter["raters"] = bson.M{"$ne": userID}
	res, err := m.movies.UpdateOne(ctx, filter, bson.M{
		"$addToSet": bson.M{"raters": userID},
		"$inc":      bson.M{counter: 1},
	})
	if err != nil {
		return false, fmt.Errorf("%w: rate: %v", ErrUnavailable, err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	// The filter excludes entries the user already rated, so a zero match
	// count alone cannot tell "already rated" from "entry is gone".
	n, err := m.movies.CountDocuments(ctx, sourceFilter(channelID, messageID))
	if err != nil {
		return false, fmt.Errorf("%w: rate: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// CountEntries reports the catalog size, for /stats.
func (m *Mongo) CountEntries(ctx context.Context) (int64, error) {
	n, err := m.movies.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: count entries: %v", ErrUnavailable, err)
	}
	return n, nil
}

// TouchUser records that a user interacted with the bot.
func (m *Mongo) TouchUser(ctx context.Context, userID int64) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"last_seen": time.Now()}, "$setOnInsert": bson.M{"joined": time.Now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: touch user: %v", ErrUnavailable, err)
	}
	return nil
}

// ListUserIDs returns every known user id, for /broadcast.
func (m *Mongo) ListUserIDs(ctx context.Context) ([]int64, error) {
	cur, err := m.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}
	defer cur.Close(ctx)
	var ids []int64
	for cur.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		ids = append(ids, doc.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", ErrUnavailable, err)
	}
	return ids, nil
}

// CountUsers reports how many users have talked to the bot.
func (m *Mongo) CountUsers(ctx context.Context) (int64, error) {
	n, err := m.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: count users: %v", ErrUnavailable, err)
	}
	return n, nil
}

// AddFeedback stores one piece of user feedback.
func (m *Mongo) AddFeedback(ctx context.Context, fb Feedback) error {
	fb.CreatedAt = time.Now()
	_, err := m.feedback.InsertOne(ctx, fb)
	if err != nil {
		return fmt.Errorf("%w: add feedback: %v", ErrUnavailable, err)
	}
	return nil
}

// CountFeedback reports how many feedback entries exist.
func (m *Mongo) CountFeedback(ctx context.Context) (int64, error) {
	n, err := m.feedback.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: count feedback: %v", ErrUnavailable, err)
	}
	return n, nil
}
