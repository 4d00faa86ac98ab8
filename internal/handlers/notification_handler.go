package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glotta/agency-api/internal/middleware"
	"github.com/glotta/agency-api/internal/models"
	"github.com/glotta/agency-api/internal/repository"
	"github.com/glotta/agency-api/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// @Summary List Notifications
// @Description List the current user's notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param unread query bool false "Only unread"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["unread"] = c.Query("unread")

	notifications, total, err := h.notificationService.FindByUser(c.Request.Context(), middleware.GetUserID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}

	respondData(c, http.StatusOK, gin.H{
		"notifications": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Mark Notification Read
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /notifications/{notification_id}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("notification_id"), 10, 32)
	if err := h.notificationService.MarkAsRead(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"read": true})
}

// @Summary Mark All Notifications Read
// @Tags Notifications
// @Produce json
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /notifications/read_all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.notificationService.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"read": true})
}
