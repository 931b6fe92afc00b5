package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/service"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/httpx"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/slogx"
)

// ActivityHandler exposes the audit trail to admins.
type ActivityHandler struct {
	Gate          *service.SessionGate
	Store         store.Store
	SecureCookies bool
}

type activityEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *ActivityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rc := requestContext(r)
	if _, err := h.Gate.RequirePermission(ctx, rc, "activity:read"); err != nil {
		clearRejectedRemember(w, rc, err, h.SecureCookies)
		writeServiceError(w, err)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events, err := h.Store.ActivityLog().ListRecentActivity(ctx, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list activity", "err", err)
		writeServiceError(w, err)
		return
	}

	entries := make([]activityEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, activityEntry{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			IPAddress: e.IPAddress,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"activity": entries})
}
