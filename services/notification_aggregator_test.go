package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawsit/pawsit_backend/models"
	"github.com/pawsit/pawsit_backend/repositories"
)

type mockRequestStore struct {
	mock.Mock
}

func (m *mockRequestStore) Create(ctx context.Context, req *models.Request) (primitive.ObjectID, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *mockRequestStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestStore) ListBySitter(ctx context.Context, sitterID primitive.ObjectID) ([]models.Request, error) {
	args := m.Called(ctx, sitterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestStore) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestStore) ListByOwnerAccepted(ctx context.Context, ownerID primitive.ObjectID) ([]models.Request, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *mockRequestStore) MarkReadByOwner(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestStore) MarkReadBySitter(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestStore) SetConfirmation(ctx context.Context, id primitive.ObjectID, accepted bool) (*models.Request, error) {
	args := m.Called(ctx, id, accepted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *mockRequestStore) UpdateSchedule(ctx context.Context, id primitive.ObjectID, start, end time.Time, cost float64) (*models.Request, error) {
	args := m.Called(ctx, id, start, end, cost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

type mockProfileLookup struct {
	mock.Mock
}

func (m *mockProfileLookup) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// profileLookupFunc adapts a function to the ProfileLookup interface.
type profileLookupFunc func(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)

func (f profileLookupFunc) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	return f(ctx, userID)
}

func boolPtr(b bool) *bool { return &b }

type fixture struct {
	owner    primitive.ObjectID
	sitter   primitive.ObjectID
	request  *models.Request
	profile  *models.Profile
	ref      models.RequestRef
	store    *mockRequestStore
	profiles *mockProfileLookup
}

func newFixture() *fixture {
	owner := primitive.NewObjectID()
	sitter := primitive.NewObjectID()
	request := &models.Request{
		ID:           primitive.NewObjectID(),
		OwnerUserID:  owner,
		SitterUserID: sitter,
		Start:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC),
		Cost:         20,
	}
	return &fixture{
		owner:   owner,
		sitter:  sitter,
		request: request,
		profile: &models.Profile{UserID: owner, FirstName: "Maya", ProfileImg: "profiles/maya.jpg"},
		ref: models.RequestRef{
			RequestID:    request.ID.Hex(),
			OwnerUserID:  owner.Hex(),
			SitterUserID: sitter.Hex(),
		},
		store:    new(mockRequestStore),
		profiles: new(mockProfileLookup),
	}
}

func TestAggregateRequestsTopic(t *testing.T) {
	f := newFixture()
	f.profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "https://assets.pawsit.dev")
	views := agg.Aggregate(context.Background(), TopicRequests, []models.RequestRef{f.ref})

	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, models.NoticeKindRequest, view.Kind)
	assert.Equal(t, f.request.ID.Hex(), view.RequestID)
	assert.Equal(t, "Maya", view.FirstName)
	assert.Equal(t, "https://assets.pawsit.dev/profiles/maya.jpg", view.ProfileImg)
	assert.Equal(t, f.request.Start, view.RequestedDate)
	assert.False(t, view.ReadStatus)
	assert.Nil(t, view.AcceptedStatus)
	assert.Nil(t, view.DeclinedStatus)
}

func TestAggregateFailOpenOnProfileFailure(t *testing.T) {
	f := newFixture()

	other := newFixture()
	other.profile.FirstName = "Jonas"

	f.profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
	f.profiles.On("FindByUserID", mock.Anything, other.owner).Return(nil, errors.New("lookup timed out"))
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, []models.RequestRef{f.ref, other.ref})

	require.Len(t, views, 1)
	assert.Equal(t, f.request.ID.Hex(), views[0].RequestID)
}

func TestAggregateFailOpenOnRecordFailure(t *testing.T) {
	f := newFixture()
	f.profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(nil, repositories.ErrNotFound)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, []models.RequestRef{f.ref})

	assert.Empty(t, views)
}

func TestAggregateUnreadFilter(t *testing.T) {
	f := newFixture()
	f.request.ReadBySitter = true
	f.profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, []models.RequestRef{f.ref})

	assert.Empty(t, views)
}

func TestAggregateConfirmsRequireResponse(t *testing.T) {
	f := newFixture()
	sitterProfile := &models.Profile{UserID: f.sitter, FirstName: "Lena", ProfileImg: "profiles/lena.jpg"}
	f.profiles.On("FindByUserID", mock.Anything, f.sitter).Return(sitterProfile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")

	// No response yet: nothing to confirm.
	views := agg.Aggregate(context.Background(), TopicConfirms, []models.RequestRef{f.ref})
	assert.Empty(t, views)
}

func TestAggregateConfirmsTopic(t *testing.T) {
	f := newFixture()
	f.request.Accepted = boolPtr(true)
	f.request.Declined = boolPtr(false)
	sitterProfile := &models.Profile{UserID: f.sitter, FirstName: "Lena", ProfileImg: "profiles/lena.jpg"}
	f.profiles.On("FindByUserID", mock.Anything, f.sitter).Return(sitterProfile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicConfirms, []models.RequestRef{f.ref})

	require.Len(t, views, 1)
	view := views[0]
	assert.Equal(t, models.NoticeKindConfirmation, view.Kind)
	assert.Equal(t, "Lena", view.FirstName)
	require.NotNil(t, view.AcceptedStatus)
	assert.True(t, *view.AcceptedStatus)
	require.NotNil(t, view.DeclinedStatus)
	assert.False(t, *view.DeclinedStatus)
}

func TestAggregateConfirmsReadByOwnerFiltered(t *testing.T) {
	f := newFixture()
	f.request.Accepted = boolPtr(true)
	f.request.Declined = boolPtr(false)
	f.request.ReadByOwner = true
	sitterProfile := &models.Profile{UserID: f.sitter, FirstName: "Lena"}
	f.profiles.On("FindByUserID", mock.Anything, f.sitter).Return(sitterProfile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicConfirms, []models.RequestRef{f.ref})

	assert.Empty(t, views)
}

func TestAggregateSkipsMalformedRefs(t *testing.T) {
	f := newFixture()
	f.profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
	f.store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, []models.RequestRef{
		{RequestID: "not-a-hex-id", OwnerUserID: f.owner.Hex(), SitterUserID: f.sitter.Hex()},
		f.ref,
	})

	require.Len(t, views, 1)
	assert.Equal(t, f.request.ID.Hex(), views[0].RequestID)
}

func TestAggregatePreservesInputOrder(t *testing.T) {
	store := new(mockRequestStore)
	profiles := new(mockProfileLookup)

	var refs []models.RequestRef
	var wantIDs []string
	for i := 0; i < 10; i++ {
		f := newFixture()
		store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)
		profiles.On("FindByUserID", mock.Anything, f.owner).Return(f.profile, nil)
		refs = append(refs, f.ref)
		wantIDs = append(wantIDs, f.request.ID.Hex())
	}

	agg := NewNotificationAggregator(store, profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, refs)

	require.Len(t, views, len(refs))
	for i, view := range views {
		assert.Equal(t, wantIDs[i], view.RequestID)
	}
}

func TestAggregateBoundedParallelism(t *testing.T) {
	store := new(mockRequestStore)

	var inFlight, peak int64
	var mu sync.Mutex
	profiles := profileLookupFunc(func(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
		current := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return &models.Profile{UserID: userID, FirstName: "X"}, nil
	})

	var refs []models.RequestRef
	for i := 0; i < 32; i++ {
		f := newFixture()
		store.On("GetByID", mock.Anything, f.request.ID).Return(f.request, nil)
		refs = append(refs, f.ref)
	}

	agg := NewNotificationAggregator(store, profiles, "")
	views := agg.Aggregate(context.Background(), TopicRequests, refs)

	require.Len(t, views, len(refs))
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(maxConcurrentLookups))
}

func TestAggregateCancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewNotificationAggregator(f.store, f.profiles, "")
	views := agg.Aggregate(ctx, TopicRequests, []models.RequestRef{f.ref})

	assert.Empty(t, views)
	f.profiles.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestAggregateEmptyBatch(t *testing.T) {
	f := newFixture()
	agg := NewNotificationAggregator(f.store, f.profiles, "")
	assert.Empty(t, agg.Aggregate(context.Background(), TopicRequests, nil))
}
