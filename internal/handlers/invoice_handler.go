package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/services"
)

type InvoiceHandler struct {
	invoiceService *services.InvoiceService
}

func NewInvoiceHandler(invoiceService *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// InvoiceRequest is the request body for creating or updating an invoice
type InvoiceRequest struct {
	InvoiceNumber string  `json:"invoice_number"`
	Amount        float64 `json:"amount"`
	IssueDate     string  `json:"issue_date"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	TaxNumber     string  `json:"tax_number"`
	Note          *string `json:"note"`
}

func (r *InvoiceRequest) toInput() (services.InvoiceInput, error) {
	issueDate, err := parseDate(r.IssueDate)
	if err != nil {
		return services.InvoiceInput{}, err
	}
	return services.InvoiceInput{
		InvoiceNumber: r.InvoiceNumber,
		Amount:        r.Amount,
		IssueDate:     issueDate,
		Type:          r.Type,
		Title:         r.Title,
		TaxNumber:     r.TaxNumber,
		Note:          r.Note,
	}, nil
}

// @Summary Create Invoice
// @Description Issue an invoice against a project; the non-void total may not exceed the project amount
// @Tags Invoices
// @Accept json
// @Produce json
// @Param project_id path int true "Project ID"
// @Param request body InvoiceRequest true "Invoice details"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)

	var req InvoiceRequest
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondValidation(c, "issue_date must be a date")
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), uint(projectID), actorFrom(c), input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, invoice.ToResponse())
}

// @Summary Update Invoice
// @Description Update an issued invoice; void invoices are immutable
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Param request body InvoiceRequest true "Invoice details"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /invoices/{invoice_id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)

	var req InvoiceRequest
	if err := BindNestedOrFlat(c, "invoice", &req); err != nil {
		respondValidation(c, "invalid request body")
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondValidation(c, "issue_date must be a date")
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), uint(id), actorFrom(c), input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, invoice.ToResponse())
}

// @Summary Void Invoice
// @Description Void an invoice; its number becomes reusable and its amount leaves the project cap
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /invoices/{invoice_id}/void [post]
func (h *InvoiceHandler) Void(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.Void(c.Request.Context(), uint(id), actorFrom(c), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, invoice.ToResponse())
}

// @Summary Get Invoice
// @Description Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Param invoice_id path int true "Invoice ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /invoices/{invoice_id} [get]
func (h *InvoiceHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("invoice_id"), 10, 32)
	invoice, err := h.invoiceService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, invoice.ToResponse())
}

// @Summary List Invoices
// @Description List invoices visible to the caller; sales only see their own projects' invoices
// @Tags Invoices
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param project_id query int false "Filter by project"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) Index(c *gin.Context) {
	query := &repository.InvoiceQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if pid, err := strconv.ParseUint(c.Query("project_id"), 10, 32); err == nil {
		query.ProjectID = uint(pid)
	}
	query.Status = c.Query("status")
	query.Type = c.Query("type")

	invoices, total, err := h.invoiceService.List(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}

	respondData(c, http.StatusOK, gin.H{
		"invoices": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary List Project Invoices
// @Description List all invoices of a project
// @Tags Invoices
// @Produce json
// @Param project_id path int true "Project ID"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /projects/{project_id}/invoices [get]
func (h *InvoiceHandler) IndexByProject(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)
	invoices, err := h.invoiceService.FindByProject(c.Request.Context(), uint(projectID))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, invoices[i].ToResponse())
	}
	respondData(c, http.StatusOK, gin.H{"invoices": responses})
}
