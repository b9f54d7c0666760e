package item

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/zhouzirui/item-service/backend/internal/model/item"
	"github.com/zhouzirui/item-service/backend/internal/service/feed"
	"github.com/zhouzirui/item-service/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

var (
	errMissingField = errors.New("name and description are required")
	errTrailingData = errors.New("unexpected data after request body")
)

// Publisher receives item change events.
type Publisher interface {
	Publish(feed.Event)
}

// Handler item服务的HTTP处理器
type Handler struct {
	// mu orders store mutations with their feed events.
	mu      sync.Mutex
	items   item.Store
	events  Publisher
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *metricsRecorder
}

// New 创建item处理器；events 为 nil 时不发布事件。
func New(items item.Store, events Publisher, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics, err := newMetricsRecorder()
	if err != nil {
		return nil, fmt.Errorf("init item metrics: %w", err)
	}

	return &Handler{
		items:   items,
		events:  events,
		log:     logger,
		tracer:  otel.Tracer(instrumentationName),
		metrics: metrics,
	}, nil
}

// RegisterRoutes 注册item相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.handleListItems)
	r.Get("/items/{itemID}", h.handleGetItem)
	r.Delete("/items/{itemID}", h.handleDeleteItem)
	r.Post("/add_item", h.handleCreateItem)
	// GET on add_item lists items; the route table has always aliased it.
	r.Get("/add_item", h.handleListItems)
}

type createItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func decodeCreateItem(body io.Reader) (name, description string, err error) {
	var payload createItemRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		return "", "", err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return "", "", errTrailingData
	}
	if payload.Name == nil || payload.Description == nil {
		return "", "", errMissingField
	}
	return *payload.Name, *payload.Description, nil
}

// handleCreateItem 创建item
func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "item.create")
	defer span.End()

	name, description, err := decodeCreateItem(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		span.SetStatus(codes.Error, "invalid request body")
		h.log.Debug("rejecting create request", zap.Error(err))
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mu.Lock()
	created := h.items.Create(name, description)
	h.publish(feed.EventItemCreated, created)
	h.mu.Unlock()

	span.SetAttributes(attribute.Int64("item.id", int64(created.ID)))
	h.metrics.recordCreated(ctx)

	h.log.Info("create_item", zap.Uint64("id", created.ID))
	utils.RespondJSON(w, http.StatusOK, created)
}

// handleListItems 列出所有item
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "item.list")
	defer span.End()

	items := h.items.List()
	span.SetAttributes(attribute.Int("item.count", len(items)))

	h.log.Debug("get_items", zap.Int("count", len(items)))
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleGetItem 查询单个item
func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "item.get")
	defer span.End()

	id, ok := h.itemID(w, r, span)
	if !ok {
		return
	}

	found, err := h.items.Get(id)
	if err != nil {
		h.respondStoreError(w, span, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, found)
}

// handleDeleteItem 删除item
func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "item.delete")
	defer span.End()

	id, ok := h.itemID(w, r, span)
	if !ok {
		return
	}

	h.mu.Lock()
	removed, err := h.items.Delete(id)
	if err == nil {
		h.publish(feed.EventItemDeleted, removed)
	}
	h.mu.Unlock()

	if err != nil {
		h.respondStoreError(w, span, err)
		return
	}
	h.metrics.recordDeleted(ctx)

	h.log.Info("delete_item", zap.Uint64("id", removed.ID))
	utils.RespondJSON(w, http.StatusOK, removed)
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request, span trace.Span) (uint64, bool) {
	raw := chi.URLParam(r, "itemID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		span.SetStatus(codes.Error, "invalid item id")
		utils.RespondError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	span.SetAttributes(attribute.Int64("item.id", int64(id)))
	return id, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if errors.Is(err, item.ErrItemNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error("item store failure", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "internal server error")
}

// publish must be called with h.mu held; Publisher implementations must not block.
func (h *Handler) publish(eventType feed.EventType, it item.Item) {
	if h.events == nil {
		return
	}
	h.events.Publish(feed.NewEvent(eventType, it))
}
