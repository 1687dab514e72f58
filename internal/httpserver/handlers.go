package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quote-service/internal/domain"
	"quote-service/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTaskListLimit = 20
	maxTaskListLimit     = 100
)

type handlers struct {
	drafts  draftOrders
	quotes  quotes
	journal taskJournal
	logger  zerolog.Logger
}

type draftOrderRef struct {
	DraftOrderID string               `json:"draftOrderId"`
	Email        *domain.EmailOptions `json:"email,omitempty"`
}

func bindPayload(c *gin.Context) (domain.CheckoutPayload, bool) {
	var payload domain.CheckoutPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return payload, false
	}
	return payload, true
}

func bindDraftOrderRef(c *gin.Context) (draftOrderRef, bool) {
	var ref draftOrderRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		writeError(c, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return ref, false
	}
	ref.DraftOrderID = strings.TrimSpace(ref.DraftOrderID)
	if ref.DraftOrderID == "" {
		writeError(c, fmt.Errorf("%w: draftOrderId is required", domain.ErrValidation))
		return ref, false
	}
	return ref, true
}

func (h *handlers) createDraftOrder(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}
	order, _, err := h.drafts.ProcessCheckoutData(c.Request.Context(), payload)
	if err != nil {
		h.logger.Warn().Err(err).Msg("draft order not created")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "draftOrder": toDraftOrderView(order)})
}

func (h *handlers) printQuote(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}
	started, err := h.quotes.StartQuote(c.Request.Context(), payload)
	if err != nil {
		h.logger.Warn().Err(err).Msg("quote not started")
		writeError(c, err)
		return
	}
	body := gin.H{"success": true, "draftOrder": toDraftOrderView(started.DraftOrder), "pdf": started.PDF}
	if started.TaskID != "" {
		body["taskId"] = started.TaskID
	}
	c.JSON(http.StatusCreated, body)
}

func (h *handlers) printQuoteFromDraft(c *gin.Context) {
	ref, ok := bindDraftOrderRef(c)
	if !ok {
		return
	}
	order, res, err := h.quotes.FromDraft(c.Request.Context(), ref.DraftOrderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Status != task.StatusCompleted {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "status": res.Status, "draftOrderId": order.ID, "error": "invoice pdf could not be generated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": res.Status, "url": res.URL, "draftOrderId": order.ID, "draftOrderName": order.Name})
}

func (h *handlers) sendQuote(c *gin.Context) {
	ref, ok := bindDraftOrderRef(c)
	if !ok {
		return
	}
	order, err := h.quotes.SendQuote(c.Request.Context(), ref.DraftOrderID, ref.Email)
	if err != nil {
		h.logger.Warn().Err(err).Str("draft_order_id", ref.DraftOrderID).Msg("invoice not sent")
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "draftOrder": toDraftOrderView(order)})
}

func (h *handlers) getTask(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "task journal not configured"})
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "task not found"})
		return
	}
	outcome, err := h.journal.GetByID(c.Request.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "task not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": outcome})
}

func (h *handlers) listTasks(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "task journal not configured"})
		return
	}
	draftOrderID := strings.TrimSpace(c.Query("draftOrderId"))
	if draftOrderID == "" {
		writeError(c, fmt.Errorf("%w: draftOrderId is required", domain.ErrValidation))
		return
	}
	limit := defaultTaskListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation))
			return
		}
		limit = min(n, maxTaskListLimit)
	}
	outcomes, err := h.journal.ListByDraftOrder(c.Request.Context(), draftOrderID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if outcomes == nil {
		outcomes = []task.Outcome{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": outcomes})
}
