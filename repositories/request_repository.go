package repositories

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pawsit/pawsit_backend/models"
)

var (
	// ErrNotFound means the referenced request id is unknown.
	ErrNotFound = errors.New("request not found")
	// ErrValidation means the create payload is missing required fields.
	ErrValidation = errors.New("invalid request payload")
)

// RequestStore is the persistence contract for booking requests. The
// aggregator, controllers, and tests all consume this interface; the mongo
// implementation below is the only one used in production.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	ListBySitter(ctx context.Context, sitterID primitive.ObjectID) ([]models.Request, error)
	ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error)
	ListByOwnerAccepted(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error)
	MarkReadByOwner(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	MarkReadBySitter(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	SetConfirmation(ctx context.Context, id primitive.ObjectID, accepted bool) (*models.Request, error)
	UpdateSchedule(ctx context.Context, id primitive.ObjectID, start, end time.Time, cost float64) (*models.Request, error)
}

// RequestRepository is the mongo-backed RequestStore.
type RequestRepository struct {
	collection *mongo.Collection
	profiles   ProfileLookup
}

// NewRequestRepository creates a request repository. The profile lookup is
// used to enrich accepted requests with the sitter's display profile.
func NewRequestRepository(db *mongo.Database, profiles ProfileLookup) *RequestRepository {
	return &RequestRepository{
		collection: db.Collection("requests"),
		profiles:   profiles,
	}
}

// scheduleSort orders requests by (start, end) ascending.
var scheduleSort = bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}}

// Create validates and inserts a new request. Both read flags start false
// and the sitter's response stays unset until the confirmation transition.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) (primitive.ObjectID, error) {
	if err := validateRequest(req); err != nil {
		return primitive.NilObjectID, err
	}

	now := time.Now()
	req.ID = primitive.NewObjectID()
	req.Accepted = nil
	req.Declined = nil
	req.ReadByOwner = false
	req.ReadBySitter = false
	req.CreatedAt = now
	req.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, req); err != nil {
		return primitive.NilObjectID, err
	}
	return req.ID, nil
}

// validateRequest checks the fields Create requires.
func validateRequest(req *models.Request) error {
	if req == nil {
		return ErrValidation
	}
	if req.OwnerUserID.IsZero() || req.SitterUserID.IsZero() {
		return ErrValidation
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return ErrValidation
	}
	if req.Cost < 0 {
		return ErrValidation
	}
	return nil
}

// GetByID returns a request by its id.
func (r *RequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListBySitter returns every request targeting a sitter, regardless of
// status. Callers decide relevance.
func (r *RequestRepository) ListBySitter(ctx context.Context, sitterID primitive.ObjectID) ([]models.Request, error) {
	return r.list(ctx, bson.M{"sitterUserId": sitterID}, nil)
}

// ListByOwner returns an owner's requests sorted by (start, end) ascending.
func (r *RequestRepository) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error) {
	return r.list(ctx, bson.M{"ownerUserId": ownerID}, scheduleSort)
}

// ListByOwnerAccepted returns an owner's accepted requests sorted by
// (start, end), each enriched with the sitter's profile. A missing sitter
// profile leaves the record unenriched rather than failing the listing.
func (r *RequestRepository) ListByOwnerAccepted(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error) {
	requests, err := r.list(ctx, bson.M{"ownerUserId": ownerID, "accepted": true}, scheduleSort)
	if err != nil {
		return nil, err
	}

	for i := range requests {
		profile, err := r.profiles.FindByUserID(ctx, requests[i].SitterUserID)
		if err != nil {
			log.Printf("Error fetching sitter profile for request %s: %v", requests[i].ID.Hex(), err)
			continue
		}
		requests[i].SitterProfile = profile
	}
	return requests, nil
}

func (r *RequestRepository) list(ctx context.Context, filter bson.M, sort bson.D) ([]models.Request, error) {
	findOptions := options.Find()
	if sort != nil {
		findOptions.SetSort(sort)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// MarkReadByOwner sets the owner's read flag. The transition is idempotent
// and monotonic: the flag only ever goes false to true.
func (r *RequestRepository) MarkReadByOwner(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	return r.update(ctx, id, bson.M{"readByOwner": true})
}

// MarkReadBySitter sets the sitter's read flag, same semantics as
// MarkReadByOwner.
func (r *RequestRepository) MarkReadBySitter(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	return r.update(ctx, id, bson.M{"readBySitter": true})
}

// SetConfirmation records the sitter's response. Both flags are written in
// one update so accepted and declined can never be simultaneously true.
func (r *RequestRepository) SetConfirmation(ctx context.Context, id primitive.ObjectID, accepted bool) (*models.Request, error) {
	return r.update(ctx, id, bson.M{"accepted": accepted, "declined": !accepted})
}

// UpdateSchedule overwrites the service window and cost.
func (r *RequestRepository) UpdateSchedule(ctx context.Context, id primitive.ObjectID, start, end time.Time, cost float64) (*models.Request, error) {
	return r.update(ctx, id, bson.M{"start": start, "end": end, "cost": cost})
}

// update applies a $set in a single FindOneAndUpdate so concurrent
// transitions never lose each other's writes.
func (r *RequestRepository) update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Request, error) {
	fields["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var req models.Request
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}
