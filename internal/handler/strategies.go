package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deval2498/Spotmf/internal/repository"
)

type StrategyHandler struct {
	Repo repository.Repository
}

func (h *StrategyHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/strategies")
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

func (h *StrategyHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListStrategiesParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
		Wallet: stringQueryPtr(c, "wallet"),
		Asset:  stringQueryPtr(c, "asset"),
		Active: boolQueryPtr(c, "active"),
	}
	items, err := h.Repo.ListStrategies(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountStrategies(c.Request.Context(), repository.ListStrategiesParams{
		Wallet: params.Wallet,
		Asset:  params.Asset,
		Active: params.Active,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *StrategyHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64QueryParam(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetStrategyByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "strategy not found", nil)
		return
	}
	Ok(c, item, nil)
}
