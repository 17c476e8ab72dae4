package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deval2498/Spotmf/internal/repository"
	"github.com/deval2498/Spotmf/internal/service"
)

// CycleHandler exposes manual cycle triggers and the cycle audit trail. The
// trigger endpoints run the same code paths the cron jobs do.
type CycleHandler struct {
	Repo       repository.Repository
	Dispatcher *service.Dispatcher
	Reconciler *service.Reconciler
}

func (h *CycleHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/cycles")
	group.POST("/dispatch", h.dispatch)
	group.POST("/reconcile", h.reconcile)
	group.GET("", h.list)
}

func (h *CycleHandler) dispatch(c *gin.Context) {
	if h.Dispatcher == nil {
		Error(c, http.StatusServiceUnavailable, "dispatcher unavailable", nil)
		return
	}
	summary, err := h.Dispatcher.RunCycle(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

func (h *CycleHandler) reconcile(c *gin.Context) {
	if h.Reconciler == nil {
		Error(c, http.StatusServiceUnavailable, "reconciler unavailable", nil)
		return
	}
	summary, err := h.Reconciler.RunCycle(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

func (h *CycleHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListCycleRunsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
		Kind:   stringQueryPtr(c, "kind"),
	}
	items, err := h.Repo.ListCycleRuns(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
