package services

import (
	"context"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawsit/pawsit_backend/models"
	"github.com/pawsit/pawsit_backend/repositories"
	"github.com/pawsit/pawsit_backend/utils"
)

// Subscription topics.
const (
	TopicRequests = "requests"
	TopicConfirms = "confirms"
)

// maxConcurrentLookups bounds per-batch resolution fan-out.
const maxConcurrentLookups = 8

// NotificationAggregator joins request records with profile data into the
// notification view-models delivered over the realtime channel.
//
// Resolution is fail-open: a reference whose profile or record cannot be
// resolved is skipped, never failing the batch. Each call accumulates into
// its own result slice, so concurrent batches from different connections
// cannot leak into each other.
type NotificationAggregator struct {
	requests     repositories.RequestStore
	profiles     repositories.ProfileLookup
	imageBaseURL string
}

func NewNotificationAggregator(requests repositories.RequestStore, profiles repositories.ProfileLookup, imageBaseURL string) *NotificationAggregator {
	return &NotificationAggregator{
		requests:     requests,
		profiles:     profiles,
		imageBaseURL: imageBaseURL,
	}
}

// Aggregate resolves a batch of references for a topic and returns the
// views for references that are still unread. Output preserves input order
// with skipped references removed. The batch is only assembled after every
// reference has been attempted; a cancelled context abandons the batch.
func (a *NotificationAggregator) Aggregate(ctx context.Context, topic string, refs []models.RequestRef) []models.NotificationView {
	if len(refs) == 0 {
		return nil
	}

	results := make([]*models.NotificationView, len(refs))
	sem := make(chan struct{}, maxConcurrentLookups)
	var wg sync.WaitGroup

	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref models.RequestRef) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			// The select can win the semaphore even when the context is
			// already done; re-check before doing any lookups.
			if ctx.Err() != nil {
				return
			}
			results[i] = a.resolve(ctx, topic, ref)
		}(i, ref)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}

	views := make([]models.NotificationView, 0, len(refs))
	for _, view := range results {
		if view != nil {
			views = append(views, *view)
		}
	}
	return views
}

// resolve builds the view for one reference, or nil if it is skipped.
func (a *NotificationAggregator) resolve(ctx context.Context, topic string, ref models.RequestRef) *models.NotificationView {
	requestID, err := primitive.ObjectIDFromHex(ref.RequestID)
	if err != nil {
		log.Printf("Skipping notification ref with bad request id %q: %v", ref.RequestID, err)
		return nil
	}

	// The notice displays the counterpart's profile: the owner who sent the
	// request, or the sitter who responded to it.
	counterpart := ref.OwnerUserID
	if topic == TopicConfirms {
		counterpart = ref.SitterUserID
	}
	userID, err := primitive.ObjectIDFromHex(counterpart)
	if err != nil {
		log.Printf("Skipping notification ref %s with bad user id %q: %v", ref.RequestID, counterpart, err)
		return nil
	}

	profile, err := a.profiles.FindByUserID(ctx, userID)
	if err != nil {
		log.Printf("Skipping notification ref %s: profile lookup for %s failed: %v", ref.RequestID, userID.Hex(), err)
		return nil
	}

	record, err := a.requests.GetByID(ctx, requestID)
	if err != nil {
		log.Printf("Skipping notification ref %s: request lookup failed: %v", ref.RequestID, err)
		return nil
	}

	view := models.NotificationView{
		RequestID:     record.ID.Hex(),
		FirstName:     profile.FirstName,
		ProfileImg:    utils.ImageURL(a.imageBaseURL, profile.ProfileImg),
		RequestedDate: record.Start,
	}

	switch topic {
	case TopicRequests:
		if record.ReadBySitter {
			return nil
		}
		view.Kind = models.NoticeKindRequest
		view.ReadStatus = record.ReadBySitter
	case TopicConfirms:
		if record.ReadByOwner || !record.Responded() {
			return nil
		}
		view.Kind = models.NoticeKindConfirmation
		view.ReadStatus = record.ReadByOwner
		view.AcceptedStatus = record.Accepted
		view.DeclinedStatus = record.Declined
	default:
		log.Printf("Skipping notification ref %s: unknown topic %q", ref.RequestID, topic)
		return nil
	}
	return &view
}
