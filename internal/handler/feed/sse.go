package feed

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/item-service/backend/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// handleEvents streams item events as Server-Sent Events.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id, events, cancel, ok := h.subscribe(w)
	if !ok {
		return
	}
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log := h.log.With(zap.String("subscriber", id))
	log.Info("sse subscriber connected")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Info("sse subscriber disconnected")
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				log.Debug("sse keep-alive failed", zap.Error(err))
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(event.Type), event); err != nil {
				log.Warn("sse write failed", zap.Error(err))
				return
			}
		}
	}
}
