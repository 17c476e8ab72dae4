package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deval2498/Spotmf/internal/repository"
)

type FailedLogHandler struct {
	Repo repository.Repository
}

func (h *FailedLogHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/failed-transactions", h.list)
}

func (h *FailedLogHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	params := repository.ListFailedLogsParams{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
		Wallet: stringQueryPtr(c, "wallet"),
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid since timestamp", nil)
			return
		}
		utc := ts.UTC()
		params.Since = &utc
	}
	items, err := h.Repo.ListFailedLogs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountFailedLogs(c.Request.Context(), repository.ListFailedLogsParams{
		Wallet: params.Wallet,
		Since:  params.Since,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}
