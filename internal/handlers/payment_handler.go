package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// parseDate accepts RFC3339 timestamps and bare dates
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// InitiatePaymentRequest is the request body for sales-initiated payments
type InitiatePaymentRequest struct {
	Amount     float64 `json:"amount"`
	ReceivedAt string  `json:"received_at"`
	Method     string  `json:"method"`
	ReceivedBy uint    `json:"received_by"`
	Reference  string  `json:"reference"`
	Note       *string `json:"note"`
}

// @Summary Initiate Payment
// @Description Report an offline payment on a project; the designated receiver must confirm it
// @Tags Payments
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body InitiatePaymentRequest true "Payment details"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/payments/initiate [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)

	var req InitiatePaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	receivedAt, err := parseDate(req.ReceivedAt)
	if err != nil {
		respondValidation(c, "received_at must be a date")
		return
	}

	record, err := h.paymentService.Initiate(c.Request.Context(), uint(projectID), actorFrom(c),
		services.InitiatePaymentInput{
			Amount:     req.Amount,
			ReceivedAt: receivedAt,
			Method:     req.Method,
			ReceivedBy: req.ReceivedBy,
			Reference:  req.Reference,
			Note:       req.Note,
		},
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, record.ToResponse())
}

// DirectPaymentRequest is the request body for finance direct entry
type DirectPaymentRequest struct {
	Amount        float64 `json:"amount"`
	ReceivedAt    string  `json:"received_at"`
	Method        string  `json:"method"`
	ReceivedBy    uint    `json:"received_by"`
	Reference     string  `json:"reference"`
	InvoiceNumber string  `json:"invoice_number"`
	Note          *string `json:"note"`
}

// @Summary Record Payment
// @Description Record a payment directly (finance); bank transfers confirm immediately
// @Tags Payments
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body DirectPaymentRequest true "Payment details"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/payments [post]
func (h *PaymentHandler) RecordDirect(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)

	var req DirectPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	receivedAt, err := parseDate(req.ReceivedAt)
	if err != nil {
		respondValidation(c, "received_at must be a date")
		return
	}

	record, err := h.paymentService.RecordDirect(c.Request.Context(), uint(projectID), actorFrom(c),
		services.DirectPaymentInput{
			Amount:        req.Amount,
			ReceivedAt:    receivedAt,
			Method:        req.Method,
			ReceivedBy:    req.ReceivedBy,
			Reference:     req.Reference,
			InvoiceNumber: req.InvoiceNumber,
			Note:          req.Note,
		},
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, record.ToResponse())
}

// ConfirmPaymentRequest is the receiver's decision on a pending payment
type ConfirmPaymentRequest struct {
	Action string  `json:"action"` // confirm | reject
	Note   *string `json:"note"`
}

// @Summary Confirm or Reject Payment
// @Description The designated receiver countersigns or rejects a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param request body ConfirmPaymentRequest true "Decision"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /payments/{payment_id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	var req ConfirmPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	record, err := h.paymentService.Confirm(c.Request.Context(), uint(id), actorFrom(c),
		services.ConfirmAction{Action: req.Action, Note: req.Note},
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, record.ToResponse())
}

// ReviewPaymentRequest is the finance review decision
type ReviewPaymentRequest struct {
	Approve bool    `json:"approve"`
	Note    *string `json:"note"`
}

// @Summary Review Payment
// @Description Finance secondary audit on a confirmed payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param request body ReviewPaymentRequest true "Review"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /payments/{payment_id}/review [post]
func (h *PaymentHandler) Review(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	var req ReviewPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}

	record, err := h.paymentService.Review(c.Request.Context(), uint(id), actorFrom(c),
		services.ReviewInput{Approve: req.Approve, Note: req.Note},
		c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, record.ToResponse())
}

// @Summary Get Payment
// @Description Get a payment record by ID
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	record, err := h.paymentService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, record.ToResponse())
}

// @Summary Delete Payment
// @Description Delete a payment record; confirmed amounts are rolled back from the project aggregate
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} Response
// @Failure 403 {object} Response
// @Security BearerAuth
// @Router /payments/{payment_id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	if err := h.paymentService.Delete(c.Request.Context(), uint(id), actorFrom(c), c.ClientIP(), c.Request.UserAgent()); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"deleted": true})
}

// @Summary Payment History
// @Description List a project's payment records with the project payment status as it stood at each record
// @Tags Payments
// @Produce json
// @Param project_id path int true "Project ID"
// @Param status query string false "Record status filter"
// @Param payment_status query string false "Point-in-time project payment status filter"
// @Param start_date query string false "Received from (YYYY-MM-DD)"
// @Param end_date query string false "Received to (YYYY-MM-DD)"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/payments [get]
func (h *PaymentHandler) History(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)

	query := services.HistoryQuery{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
	}
	if s := c.Query("start_date"); s != "" {
		if t, err := parseDate(s); err == nil {
			query.StartDate = &t
		}
	}
	if s := c.Query("end_date"); s != "" {
		if t, err := parseDate(s); err == nil {
			query.EndDate = &t
		}
	}

	responses, err := h.paymentService.History(c.Request.Context(), uint(projectID), query)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"payments": responses})
}

// @Summary Recalculate Aggregate
// @Description Re-derive a project's payment aggregate from its confirmed records
// @Tags Payments
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/payments/recalculate [post]
func (h *PaymentHandler) Recalculate(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)
	agg, err := h.paymentService.RecalculateAggregate(c.Request.Context(), uint(projectID))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"received_amount":  agg.ReceivedAmount,
		"remaining_amount": agg.RemainingAmount,
		"payment_status":   agg.PaymentStatus,
		"is_fully_paid":    agg.IsFullyPaid,
	})
}
