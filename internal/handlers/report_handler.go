package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

func receivablesQueryFrom(c *gin.Context) *repository.ReceivablesQuery {
	query := &repository.ReceivablesQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	if cid, err := strconv.ParseUint(c.Query("customer_id"), 10, 32); err == nil {
		query.CustomerID = uint(cid)
	}
	query.Status = c.Query("status")
	query.PaymentStatus = c.Query("payment_status")
	if s := c.Query("has_invoice"); s != "" {
		v := s == "true" || s == "1"
		query.HasInvoice = &v
	}
	if s := c.Query("expected_from"); s != "" {
		if t, err := parseDate(s); err == nil {
			query.ExpectedFrom = &t
		}
	}
	if s := c.Query("expected_to"); s != "" {
		if t, err := parseDate(s); err == nil {
			query.ExpectedTo = &t
		}
	}
	return query
}

// @Summary Receivables Report
// @Description Outstanding payments per project, with overdue and invoice flags
// @Tags Reports
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param customer_id query int false "Filter by customer"
// @Param status query string false "Project status filter"
// @Param payment_status query string false "Payment status filter"
// @Param has_invoice query bool false "Only projects with (or without) non-void invoices"
// @Param expected_from query string false "Expected payment date from (YYYY-MM-DD)"
// @Param expected_to query string false "Expected payment date to (YYYY-MM-DD)"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /reports/receivables [get]
func (h *ReportHandler) Receivables(c *gin.Context) {
	report, err := h.reportService.Receivables(c.Request.Context(), actorFrom(c), receivablesQueryFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

// @Summary Reconciliation Report
// @Description Confirmed payment totals versus non-void invoice totals per project
// @Tags Reports
// @Produce json
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /reports/reconciliation [get]
func (h *ReportHandler) Reconciliation(c *gin.Context) {
	report, err := h.reportService.Reconciliation(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

// @Summary Export Receivables CSV
// @Description Download the receivables report as a GBK-encoded CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file "csv"
// @Security BearerAuth
// @Router /reports/receivables/csv [get]
func (h *ReportHandler) ReceivablesCSV(c *gin.Context) {
	data, filename, err := h.exportService.ReceivablesCSV(c.Request.Context(), actorFrom(c), receivablesQueryFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, data, filename, "text/csv; charset=gbk")
}

// @Summary Export Receivables XLSX
// @Description Download the receivables report as an Excel workbook
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "xlsx"
// @Security BearerAuth
// @Router /reports/receivables/xlsx [get]
func (h *ReportHandler) ReceivablesXLSX(c *gin.Context) {
	data, filename, err := h.exportService.ReceivablesXLSX(c.Request.Context(), actorFrom(c), receivablesQueryFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// @Summary Export Reconciliation CSV
// @Description Download the reconciliation report as a GBK-encoded CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file "csv"
// @Security BearerAuth
// @Router /reports/reconciliation/csv [get]
func (h *ReportHandler) ReconciliationCSV(c *gin.Context) {
	data, filename, err := h.exportService.ReconciliationCSV(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, data, filename, "text/csv; charset=gbk")
}

// @Summary Export Reconciliation PDF
// @Description Download the reconciliation report as a PDF
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /reports/reconciliation/pdf [get]
func (h *ReportHandler) ReconciliationPDF(c *gin.Context) {
	data, filename, err := h.exportService.ReconciliationPDF(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, data, filename, "application/pdf")
}

// @Summary Project Statement PDF
// @Description Download a project's payment and invoice statement for the customer
// @Tags Reports
// @Produce application/pdf
// @Param project_id path int true "Project ID"
// @Success 200 {file} file "pdf"
// @Security BearerAuth
// @Router /projects/{project_id}/statement [get]
func (h *ReportHandler) ProjectStatement(c *gin.Context) {
	projectID, _ := strconv.ParseUint(c.Param("project_id"), 10, 32)
	data, filename, err := h.exportService.ProjectStatementPDF(c.Request.Context(), uint(projectID))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, data, filename, "application/pdf")
}
