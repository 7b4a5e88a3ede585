package handler

import (
	"net/http"

	"github.com/marcella-castro/check-pesquisa-mj/internal/snapshot"
)

type CacheHandler struct {
	snaps *snapshot.Service
}

func NewCacheHandler(snaps *snapshot.Service) *CacheHandler {
	return &CacheHandler{snaps: snaps}
}

func (h *CacheHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snaps.Status())
}

// Reload starts a refresh regardless of the snapshot age. The current
// snapshot keeps serving until the new one is loaded.
func (h *CacheHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !h.snaps.ForceReload() {
		writeJSON(w, http.StatusConflict, map[string]any{
			"started": false,
			"error":   "atualização já em andamento",
		})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}
