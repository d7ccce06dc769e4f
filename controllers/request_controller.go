package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawsit/pawsit_backend/models"
	"github.com/pawsit/pawsit_backend/repositories"
	"github.com/pawsit/pawsit_backend/websocket"
)

// notifyTimeout bounds the lookups behind an incremental notice. Expiry is
// treated like any other failed lookup: the notice is dropped.
const notifyTimeout = 10 * time.Second

// RequestController handles the request lifecycle API endpoints.
type RequestController struct {
	store    repositories.RequestStore
	notifier *websocket.Handler
}

// NewRequestController creates a new request controller. The notifier may
// be nil when no realtime channel is wired.
func NewRequestController(store repositories.RequestStore, notifier *websocket.Handler) *RequestController {
	return &RequestController{store: store, notifier: notifier}
}

// CreateRequest creates a new booking request and notifies the targeted
// sitter's active connections.
func (rc *RequestController) CreateRequest(ctx echo.Context) error {
	var payload models.CreateRequestPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ctx.Validate(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing or invalid fields",
		})
	}

	ownerID, err := primitive.ObjectIDFromHex(payload.OwnerUserID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid owner user ID",
		})
	}
	sitterID, err := primitive.ObjectIDFromHex(payload.SitterUserID)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sitter user ID",
		})
	}

	request := &models.Request{
		OwnerUserID:  ownerID,
		SitterUserID: sitterID,
		Start:        payload.Start,
		End:          payload.End,
		Cost:         payload.Cost,
	}
	if _, err := rc.store.Create(ctx.Request().Context(), request); err != nil {
		if errors.Is(err, repositories.ErrValidation) {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Missing or invalid fields",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create request",
		})
	}

	if rc.notifier != nil {
		go func(ref models.RequestRef) {
			nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			rc.notifier.NotifyNewRequest(nctx, ref)
		}(refFor(request))
	}

	return ctx.JSON(http.StatusOK, request)
}

// GetRequest returns one request by id.
func (rc *RequestController) GetRequest(ctx echo.Context) error {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}

	request, err := rc.store.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return rc.storeError(ctx, err, "Error finding request")
	}
	return ctx.JSON(http.StatusOK, request)
}

// GetSitterRequests returns every request targeting a sitter.
func (rc *RequestController) GetSitterRequests(ctx echo.Context) error {
	sitterID, err := primitive.ObjectIDFromHex(ctx.Param("sitterId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sitter ID",
		})
	}

	requests, err := rc.store.ListBySitter(ctx.Request().Context(), sitterID)
	if err != nil {
		return rc.storeError(ctx, err, "Error retrieving requests")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(requests))
}

// GetOwnerRequests returns an owner's requests ordered by service window.
func (rc *RequestController) GetOwnerRequests(ctx echo.Context) error {
	ownerID, err := primitive.ObjectIDFromHex(ctx.Param("ownerId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid owner ID",
		})
	}

	requests, err := rc.store.ListByOwner(ctx.Request().Context(), ownerID)
	if err != nil {
		return rc.storeError(ctx, err, "Error retrieving requests")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(requests))
}

// GetConfirmedRequests returns an owner's accepted requests, each enriched
// with the sitter's profile.
func (rc *RequestController) GetConfirmedRequests(ctx echo.Context) error {
	ownerID, err := primitive.ObjectIDFromHex(ctx.Param("ownerId"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid owner ID",
		})
	}

	requests, err := rc.store.ListByOwnerAccepted(ctx.Request().Context(), ownerID)
	if err != nil {
		return rc.storeError(ctx, err, "Error retrieving requests")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(requests))
}

// MarkReadBySitter records that the sitter acknowledged the request
// notice. Repeating the call is a no-op, not an error.
func (rc *RequestController) MarkReadBySitter(ctx echo.Context) error {
	return rc.markRead(ctx, rc.store.MarkReadBySitter)
}

// MarkReadByOwner records that the owner acknowledged the confirmation
// notice, same semantics as MarkReadBySitter.
func (rc *RequestController) MarkReadByOwner(ctx echo.Context) error {
	return rc.markRead(ctx, rc.store.MarkReadByOwner)
}

func (rc *RequestController) markRead(ctx echo.Context, transition func(context.Context, primitive.ObjectID) (*models.Request, error)) error {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}

	request, err := transition(ctx.Request().Context(), id)
	if err != nil {
		return rc.storeError(ctx, err, "Error updating read status")
	}
	return ctx.JSON(http.StatusOK, request)
}

// ConfirmRequest records the sitter's accept/decline response and notifies
// the owner's active connections.
func (rc *RequestController) ConfirmRequest(ctx echo.Context) error {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}

	var payload models.ConfirmationPayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	request, err := rc.store.SetConfirmation(ctx.Request().Context(), id, payload.Accepted)
	if err != nil {
		return rc.storeError(ctx, err, "Error updating confirmation")
	}

	if rc.notifier != nil {
		go func(ref models.RequestRef) {
			nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			rc.notifier.NotifyConfirmation(nctx, ref)
		}(refFor(request))
	}

	return ctx.JSON(http.StatusOK, request)
}

// UpdateSchedule overwrites a request's service window and cost.
func (rc *RequestController) UpdateSchedule(ctx echo.Context) error {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request ID",
		})
	}

	var payload models.ScheduleUpdatePayload
	if err := ctx.Bind(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := ctx.Validate(&payload); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing or invalid fields",
		})
	}

	request, err := rc.store.UpdateSchedule(ctx.Request().Context(), id, payload.Start, payload.End, payload.Cost)
	if err != nil {
		return rc.storeError(ctx, err, "Error updating schedule")
	}
	return ctx.JSON(http.StatusOK, request)
}

func (rc *RequestController) storeError(ctx echo.Context, err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Request not found",
		})
	}
	return ctx.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: message,
	})
}

func refFor(request *models.Request) models.RequestRef {
	return models.RequestRef{
		RequestID:    request.ID.Hex(),
		OwnerUserID:  request.OwnerUserID.Hex(),
		SitterUserID: request.SitterUserID.Hex(),
	}
}

func emptyIfNil(requests []models.Request) []models.Request {
	if requests == nil {
		return []models.Request{}
	}
	return requests
}
