package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"time"

	wkhtmltopdf "github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/glotta/agency-api/internal/repository"
)

//go:embed templates/reports/*.html
var reportTemplates embed.FS

type ExportService struct {
	reportSvc   *ReportService
	projectRepo repository.ProjectRepository
	paymentRepo repository.PaymentRepository
	invoiceRepo repository.InvoiceRepository
}

func NewExportService(reportSvc *ReportService, projectRepo repository.ProjectRepository, paymentRepo repository.PaymentRepository, invoiceRepo repository.InvoiceRepository) *ExportService {
	return &ExportService{
		reportSvc:   reportSvc,
		projectRepo: projectRepo,
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
	}
}

// gbkCSV renders rows as a GBK-encoded CSV so the files open correctly in
// the Excel installs the finance team uses.
func gbkCSV(rows [][]string) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := transform.NewWriter(buf, simplifiedchinese.GBK.NewEncoder())
	w := csv.NewWriter(enc)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) ReceivablesCSV(ctx context.Context, actor Actor, query *repository.ReceivablesQuery) ([]byte, string, error) {
	report, err := s.reportSvc.Receivables(ctx, actor, query)
	if err != nil {
		return nil, "", err
	}

	rows := [][]string{
		{"应收款报表", time.Now().Format("2006-01-02 15:04")},
		{"项目", "客户", "合同金额", "已收金额", "未收金额", "收款状态", "已开票", "约定收款日", "是否逾期"},
	}
	for _, r := range report.Rows {
		expected := ""
		if r.PaymentExpectedAt != nil {
			expected = r.PaymentExpectedAt.Format("2006-01-02")
		}
		rows = append(rows, []string{
			r.ProjectName,
			r.CustomerName,
			fmt.Sprintf("%.2f", r.Amount),
			fmt.Sprintf("%.2f", r.ReceivedAmount),
			fmt.Sprintf("%.2f", r.RemainingAmount),
			paymentStatusLabel(r.PaymentStatus),
			boolLabel(r.HasInvoice),
			expected,
			boolLabel(r.Overdue),
		})
	}
	rows = append(rows, []string{""})
	rows = append(rows, []string{"合计", "",
		fmt.Sprintf("%.2f", report.TotalAmount),
		fmt.Sprintf("%.2f", report.TotalReceived),
		fmt.Sprintf("%.2f", report.TotalRemaining),
	})

	data, err := gbkCSV(rows)
	if err != nil {
		return nil, "", ErrInternal(err)
	}
	filename := fmt.Sprintf("receivables_%s.csv", time.Now().Format("2006-01-02"))
	return data, filename, nil
}

func (s *ExportService) ReconciliationCSV(ctx context.Context, actor Actor) ([]byte, string, error) {
	report, err := s.reportSvc.Reconciliation(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	rows := [][]string{
		{"收款对账报表", time.Now().Format("2006-01-02 15:04")},
		{"项目", "客户", "合同金额", "确认收款", "开票金额", "差额", "是否平账"},
	}
	for _, r := range report.Rows {
		rows = append(rows, []string{
			r.ProjectName,
			r.CustomerName,
			fmt.Sprintf("%.2f", r.Amount),
			fmt.Sprintf("%.2f", r.ConfirmedTotal),
			fmt.Sprintf("%.2f", r.InvoicedTotal),
			fmt.Sprintf("%.2f", r.Difference),
			boolLabel(r.IsBalanced),
		})
	}
	rows = append(rows, []string{""})
	rows = append(rows, []string{"平账项目", fmt.Sprintf("%d", report.BalancedCount)})
	rows = append(rows, []string{"未平账项目", fmt.Sprintf("%d", report.UnbalancedCount)})

	data, err := gbkCSV(rows)
	if err != nil {
		return nil, "", ErrInternal(err)
	}
	filename := fmt.Sprintf("reconciliation_%s.csv", time.Now().Format("2006-01-02"))
	return data, filename, nil
}

func (s *ExportService) ReceivablesXLSX(ctx context.Context, actor Actor, query *repository.ReceivablesQuery) ([]byte, string, error) {
	report, err := s.reportSvc.Receivables(ctx, actor, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Receivables"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "应收款报表")
	_ = f.SetCellValue(sheet, "B1", time.Now().Format("2006-01-02 15:04"))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"项目", "客户", "合同金额", "已收金额", "未收金额", "收款状态", "已开票", "约定收款日", "是否逾期"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, r := range report.Rows {
		row := rowIdx + 4
		expected := ""
		if r.PaymentExpectedAt != nil {
			expected = r.PaymentExpectedAt.Format("2006-01-02")
		}
		values := []interface{}{
			r.ProjectName, r.CustomerName, r.Amount, r.ReceivedAmount, r.RemainingAmount,
			paymentStatusLabel(r.PaymentStatus), boolLabel(r.HasInvoice), expected, boolLabel(r.Overdue),
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	totalRow := len(report.Rows) + 5
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "合计")
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), report.TotalAmount)
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", totalRow), report.TotalReceived)
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), report.TotalRemaining)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", ErrInternal(err)
	}
	filename := fmt.Sprintf("receivables_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ReconciliationPDF(ctx context.Context, actor Actor) ([]byte, string, error) {
	report, err := s.reportSvc.Reconciliation(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Reconciliation Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 8, time.Now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(50, 8, "Project")
	pdf.Cell(30, 8, "Contract")
	pdf.Cell(30, 8, "Confirmed")
	pdf.Cell(30, 8, "Invoiced")
	pdf.Cell(25, 8, "Difference")
	pdf.Cell(20, 8, "Balanced")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for _, r := range report.Rows {
		balanced := "yes"
		if !r.IsBalanced {
			balanced = "NO"
		}
		pdf.Cell(50, 7, truncate(r.ProjectName, 28))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", r.Amount))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", r.ConfirmedTotal))
		pdf.Cell(30, 7, fmt.Sprintf("%.2f", r.InvoicedTotal))
		pdf.Cell(25, 7, fmt.Sprintf("%.2f", r.Difference))
		pdf.Cell(20, 7, balanced)
		pdf.Ln(7)
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(60, 8, fmt.Sprintf("Balanced: %d", report.BalancedCount))
	pdf.Cell(60, 8, fmt.Sprintf("Unbalanced: %d", report.UnbalancedCount))
	pdf.Ln(8)
	pdf.Cell(60, 8, fmt.Sprintf("Confirmed total: %.2f", report.ConfirmedTotal))
	pdf.Cell(60, 8, fmt.Sprintf("Invoiced total: %.2f", report.InvoicedTotal))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", ErrInternal(err)
	}
	filename := fmt.Sprintf("reconciliation_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ProjectStatementPDF renders a project's payment and invoice statement as a
// PDF for sending to the customer.
func (s *ExportService) ProjectStatementPDF(ctx context.Context, projectID uint) ([]byte, string, error) {
	project, err := s.projectRepo.FindByIDWithMembers(ctx, projectID)
	if err != nil {
		return nil, "", wrapFind(err, "project")
	}
	records, err := s.paymentRepo.FindByProject(ctx, &repository.PaymentQuery{ProjectID: projectID})
	if err != nil {
		return nil, "", ErrInternal(err)
	}
	invoices, err := s.invoiceRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, "", ErrInternal(err)
	}

	type paymentRow struct {
		ReceivedAt string
		Method     string
		Amount     string
		Status     string
	}
	type invoiceRow struct {
		Number    string
		IssueDate string
		Amount    string
		Status    string
	}

	data := map[string]interface{}{
		"ProjectName":     project.Name,
		"CustomerName":    project.Customer.Name,
		"Amount":          fmt.Sprintf("%.2f", project.Amount),
		"ReceivedAmount":  fmt.Sprintf("%.2f", project.ReceivedAmount),
		"RemainingAmount": fmt.Sprintf("%.2f", project.RemainingAmount),
		"PaymentStatus":   paymentStatusLabel(project.PaymentStatus),
		"GeneratedAt":     time.Now().Format("2006-01-02 15:04"),
	}

	payments := make([]paymentRow, 0, len(records))
	for i := range records {
		r := &records[i]
		payments = append(payments, paymentRow{
			ReceivedAt: r.ReceivedAt.Format("2006-01-02"),
			Method:     methodLabel(r.Method),
			Amount:     fmt.Sprintf("%.2f", r.Amount),
			Status:     recordStatusLabel(r.Status),
		})
	}
	data["Payments"] = payments

	invoiceRows := make([]invoiceRow, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		invoiceRows = append(invoiceRows, invoiceRow{
			Number:    inv.InvoiceNumber,
			IssueDate: inv.IssueDate.Format("2006-01-02"),
			Amount:    fmt.Sprintf("%.2f", inv.Amount),
			Status:    invoiceStatusLabel(inv.Status),
		})
	}
	data["Invoices"] = invoiceRows

	pdfBuf, err := s.generatePDF("project_statement.html", data)
	if err != nil {
		return nil, "", ErrInternal(err)
	}
	filename := fmt.Sprintf("statement_project_%d_%s.pdf", projectID, time.Now().Format("2006-01-02"))
	return pdfBuf.Bytes(), filename, nil
}

// generatePDF renders an embedded HTML template and converts it with
// wkhtmltopdf
func (s *ExportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmpl, err := template.ParseFS(reportTemplates, "templates/reports/"+templateName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}
	return pdfg.Buffer(), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func boolLabel(b bool) string {
	if b {
		return "是"
	}
	return "否"
}

func paymentStatusLabel(status string) string {
	switch status {
	case "paid":
		return "已收齐"
	case "partially_paid":
		return "部分到账"
	default:
		return "未收款"
	}
}

func recordStatusLabel(status string) string {
	switch status {
	case "pending":
		return "待确认"
	case "confirmed":
		return "已确认"
	case "rejected":
		return "已拒绝"
	case "approved":
		return "已审核"
	default:
		return status
	}
}

func methodLabel(method string) string {
	switch method {
	case "bank":
		return "银行转账"
	case "cash":
		return "现金"
	case "alipay":
		return "支付宝"
	case "wechat":
		return "微信"
	default:
		return "其他"
	}
}

func invoiceStatusLabel(status string) string {
	switch status {
	case "issued":
		return "已开具"
	case "paid":
		return "已支付"
	case "void":
		return "已作废"
	default:
		return status
	}
}
