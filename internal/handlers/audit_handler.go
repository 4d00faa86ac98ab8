package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/authz"
	"github.com/glotta/agency-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description List audit entries, newest first (finance/admin)
// @Tags Audits
// @Produce json
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} Response
// @Failure 403 {object} Response
// @Security BearerAuth
// @Router /audits [get]
func (h *AuditHandler) Index(c *gin.Context) {
	actor := actorFrom(c)
	if !authz.Allowed(actor.Role, authz.ActionViewAudits) {
		respondError(c, services.ErrAuthorization("role %s cannot view audit logs", actor.Role))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.auditService.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"audits": logs, "total": total})
}
