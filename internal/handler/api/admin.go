package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	reqdto "usdt-exchange-bot/internal/handler/dto/request"
	resdto "usdt-exchange-bot/internal/handler/dto/response"
	"usdt-exchange-bot/internal/handler/httperr"
	"usdt-exchange-bot/internal/infra/crm"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// AdminHandler is the HTTP mirror of the admin chat commands, meant for
// operators with curl rather than a messenger at hand.
type AdminHandler struct {
	queries AdminReads
	crm     crm.Client
	crmMode string
	log     *slog.Logger
}

func NewAdminHandler(queries AdminReads, crmClient crm.Client, crmCfg config.CRM, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		queries: queries,
		crm:     crmClient,
		crmMode: strings.ToLower(strings.TrimSpace(crmCfg.Mode)),
		log:     log.With("component", "admin_api"),
	}
}

func (h *AdminHandler) ListRequests(c *gin.Context) {
	limit := int32(10)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n < 1 || n > 100 {
			httperr.AbortWithError(c, http.StatusBadRequest, errs.New("bad limit"), "limit must be 1..100", nil)
			return
		}
		limit = int32(n)
	}

	rows, err := h.queries.RecentRequests(c.Request.Context(), limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": resdto.FromRequests(rows)})
}

func (h *AdminHandler) GetRequest(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	r, err := h.queries.RequestByID(c.Request.Context(), id)
	if err != nil {
		if errs.Is(err, errs.ErrOrderNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Request not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromRequest(r))
}

func (h *AdminHandler) GetCRMStatus(c *gin.Context) {
	id, ok := h.requestID(c)
	if !ok {
		return
	}

	r, err := h.queries.RequestByID(c.Request.Context(), id)
	if err != nil || r.CRMRequestID == nil {
		httperr.AbortWithError(c, http.StatusNotFound, errs.New("no crm linkage"), "Request not found or not in CRM", nil)
		return
	}

	st, err := h.crm.CheckStatus(c.Request.Context(), *r.CRMRequestID)
	if err != nil {
		if errs.Is(err, errs.ErrCRMTemporary) {
			httperr.AbortWithError(c, http.StatusBadGateway, err, "CRM temporarily unavailable", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": r.ID, "status": st.Status, "flags": st.Flags})
}

// SetCRMStatus overrides the mock CRM's answer for one request. Only wired
// when CRM_MODE=mock; the real CRM owns its statuses.
func (h *AdminHandler) SetCRMStatus(c *gin.Context) {
	if h.crmMode != "mock" {
		httperr.AbortWithError(c, http.StatusConflict, errs.New("crm mode is not mock"), "Only available in mock CRM mode", nil)
		return
	}
	controls, ok := h.crm.(crm.MockControls)
	if !ok {
		httperr.AbortWithError(c, http.StatusConflict, errs.New("crm client has no mock controls"), "Only available in mock CRM mode", nil)
		return
	}

	id, ok := h.requestID(c)
	if !ok {
		return
	}

	var body reqdto.SetCRMStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	r, err := h.queries.RequestByID(c.Request.Context(), id)
	if err != nil || r.CRMRequestID == nil {
		httperr.AbortWithError(c, http.StatusNotFound, errs.New("no crm linkage"), "Request not found or not in CRM", nil)
		return
	}

	controls.SetStatus(*r.CRMRequestID, crm.Status{Status: body.Status})
	c.JSON(http.StatusOK, gin.H{"request_id": r.ID, "status": body.Status})
}

func (h *AdminHandler) ListCRMEvents(c *gin.Context) {
	if h.crmMode != "mock" {
		httperr.AbortWithError(c, http.StatusConflict, errs.New("crm mode is not mock"), "Only available in mock CRM mode", nil)
		return
	}
	controls, ok := h.crm.(crm.MockControls)
	if !ok {
		httperr.AbortWithError(c, http.StatusConflict, errs.New("crm client has no mock controls"), "Only available in mock CRM mode", nil)
		return
	}

	events := controls.Events()
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, gin.H{
			"kind":            e.Kind,
			"idempotency_key": e.IdempotencyKey,
			"payload":         e.Payload,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (h *AdminHandler) requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		httperr.AbortWithError(c, http.StatusBadRequest, errs.New("bad request id"), "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
