// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/ofolio/internal/middleware"
	"github.com/olegiv/ofolio/internal/service"
)

// ContactResponse acknowledges a contact message.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact mails a message from the public contact form to the site owner.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var msg service.ContactMessage
	if !requireJSON(w, r, &msg) {
		return
	}
	meta := service.ContactMeta{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.contact.Send(r.Context(), msg, meta); err != nil {
		h.writeServiceError(w, r, err, "Message")
		return
	}
	WriteSuccess(w, ContactResponse{Success: true, Message: "Message sent successfully"}, nil)
}
