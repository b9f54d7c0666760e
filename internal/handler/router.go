package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/item-service/backend/internal/handler/feed"
	itemHandler "github.com/zhouzirui/item-service/backend/internal/handler/item"
	middlewarePkg "github.com/zhouzirui/item-service/backend/internal/middleware"
	itemModel "github.com/zhouzirui/item-service/backend/internal/model/item"
	feedService "github.com/zhouzirui/item-service/backend/internal/service/feed"
	"github.com/zhouzirui/item-service/backend/pkg/utils"
)

const greeting = "Hello, <strong>World!</strong>"

// NewRouter wires HTTP routes to the item store and feed hub.
func NewRouter(items itemModel.Store, hub *feedService.Hub, logger *zap.Logger) (http.Handler, error) {
	if hub == nil {
		return nil, errors.New("feed hub is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	itemRoutes, err := itemHandler.New(items, hub, logger.Named("item"))
	if err != nil {
		return nil, fmt.Errorf("create item handler: %w", err)
	}
	feedHandler := feed.New(hub, logger.Named("feed"))

	r.Get("/", handleGreeting)
	r.Get("/hello", handleGreeting)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"items":  items.Len(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		itemRoutes.RegisterRoutes(api)
		feedHandler.RegisterRoutes(api)
	})

	return otelhttp.NewHandler(r, "item-service"), nil
}

func handleGreeting(w http.ResponseWriter, r *http.Request) {
	utils.RespondHTML(w, http.StatusOK, greeting)
}
