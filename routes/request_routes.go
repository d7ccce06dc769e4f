package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pawsit/pawsit_backend/controllers"
	"github.com/pawsit/pawsit_backend/middleware"
	"github.com/pawsit/pawsit_backend/websocket"
)

// RegisterRequestRoutes registers the request lifecycle endpoints and the
// realtime channel endpoint.
func RegisterRequestRoutes(e *echo.Echo, requestController *controllers.RequestController, wsHandler *websocket.Handler) {
	requests := e.Group("/requests")
	requests.Use(middleware.JWTMiddleware())

	requests.POST("", requestController.CreateRequest)
	requests.GET("/bySitter/:sitterId", requestController.GetSitterRequests)
	requests.GET("/byOwner/:ownerId", requestController.GetOwnerRequests)
	requests.GET("/confirmedByOwner/:ownerId", requestController.GetConfirmedRequests)
	requests.GET("/:id", requestController.GetRequest)
	requests.PUT("/:id/readBySitter", requestController.MarkReadBySitter)
	requests.PUT("/:id/readByOwner", requestController.MarkReadByOwner)
	requests.PUT("/:id/confirm", requestController.ConfirmRequest)
	requests.PUT("/:id", requestController.UpdateSchedule)

	// The websocket endpoint authenticates at upgrade time so the hub knows
	// which user owns the connection.
	e.GET("/ws", func(c echo.Context) error {
		userID, err := middleware.UserIDFromRequest(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Please provide valid credentials")
		}
		return wsHandler.HandleWebSocket(c, userID)
	})
}
