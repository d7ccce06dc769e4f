package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawsit/pawsit_backend/models"
)

// ErrProfileNotFound means no profile exists for the user id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileLookup resolves a user id to display profile data.
type ProfileLookup interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
}

// ProfileRepository looks profiles up in mongo with a redis cache in front.
// A nil redis client disables caching.
type ProfileRepository struct {
	collection *mongo.Collection
	cache      *redis.Client
	cacheTTL   time.Duration
}

func NewProfileRepository(db *mongo.Database, cache *redis.Client) *ProfileRepository {
	return &ProfileRepository{
		collection: db.Collection("profiles"),
		cache:      cache,
		cacheTTL:   5 * time.Minute,
	}
}

// FindByUserID returns the profile for a user. Cache errors fall through to
// mongo; only a missing document is reported as ErrProfileNotFound.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	cacheKey := "profile:" + userID.Hex()

	if r.cache != nil {
		if data, err := r.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var profile models.Profile
			if err := json.Unmarshal(data, &profile); err == nil {
				return &profile, nil
			}
		}
	}

	var profile models.Profile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			if err := r.cache.Set(ctx, cacheKey, data, r.cacheTTL).Err(); err != nil {
				log.Printf("Failed to cache profile %s: %v", userID.Hex(), err)
			}
		}
	}
	return &profile, nil
}
