package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/limesurvey"
	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

type SurveyLister interface {
	Surveys(ctx context.Context) (map[models.Category][]limesurvey.SurveyInfo, error)
}

type SurveyHandler struct {
	lister SurveyLister
}

func NewSurveyHandler(lister SurveyLister) *SurveyHandler {
	return &SurveyHandler{lister: lister}
}

func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.lister.Surveys(r.Context())
	if err != nil {
		zap.S().Warnw("Survey listing failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}
