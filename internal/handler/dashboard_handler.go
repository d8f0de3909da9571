package handler

import (
	"net/http"

	"github.com/parisxmas/checkindesk/internal/service"
)

type DashboardHandler struct {
	viewerSvc *service.ViewerService
}

func NewDashboardHandler(viewerSvc *service.ViewerService) *DashboardHandler {
	return &DashboardHandler{viewerSvc: viewerSvc}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.viewerSvc.Stats(r.Context()))
}
