package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deval2498/Spotmf/internal/repository"
)

type ExecutionHandler struct {
	Repo repository.Repository
}

func (h *ExecutionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/executions")
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

func (h *ExecutionHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListExecutionsParams{
		Limit:      intQuery(c, "limit", 50),
		Offset:     intQuery(c, "offset", 0),
		StrategyID: uint64QueryPtr(c, "strategy_id"),
		Status:     stringQueryPtr(c, "status"),
	}
	items, err := h.Repo.ListExecutions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountExecutions(c.Request.Context(), repository.ListExecutionsParams{
		StrategyID: params.StrategyID,
		Status:     params.Status,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *ExecutionHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64QueryParam(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetExecutionByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "execution not found", nil)
		return
	}
	Ok(c, item, nil)
}
