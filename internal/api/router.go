package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "minthook/internal/api/context"
	"minthook/internal/api/handlers"
	"minthook/internal/api/middleware"
)

type Dependencies struct {
	ClientHandler  *handlers.ClientHandler
	EventHandler   *handlers.EventHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	auth := deps.AuthMiddleware

	// Integration client registry
	router.POST("/api/v1/clients", chain(deps.ClientHandler.Create, auth.Handle))
	router.GET("/api/v1/clients", chain(deps.ClientHandler.List, auth.Handle))
	router.GET("/api/v1/clients/:client_id", chain(deps.ClientHandler.Get, auth.Handle))
	router.PATCH("/api/v1/clients/:client_id", chain(deps.ClientHandler.Update, auth.Handle))

	// Event queue inspection and dead-letter replay
	router.GET("/api/v1/events", chain(deps.EventHandler.List, auth.Handle))
	router.GET("/api/v1/events/:event_id", chain(deps.EventHandler.Get, auth.Handle))
	router.POST("/api/v1/events/:event_id/replay", chain(deps.EventHandler.Replay, auth.Handle))

	// Manual occurrence producer
	router.POST("/api/v1/occurrences", chain(deps.EventHandler.EnqueueOccurrence, auth.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
