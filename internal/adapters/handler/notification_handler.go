package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	mw "github.com/LycorisBlue/backend-ruachconnect/internal/adapters/middleware"
)

type NotificationHandler struct {
	notifications ports.NotificationReader
	logger        *zap.Logger
}

func NewNotificationHandler(notifications ports.NotificationReader, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyUnread := r.URL.Query().Get("unread") == "true"
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	userID := mw.UserID(r.Context())
	notifications, unread, err := h.notifications.ListForUser(r.Context(), userID, onlyUnread, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
		"page":          page,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.notifications.MarkRead(r.Context(), r.PathValue("id"), mw.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"message": "Notification marquée comme lue"})
}
