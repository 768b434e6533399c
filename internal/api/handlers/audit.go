package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/models"
)

type AuditReader interface {
	GetAuditLogs(ctx context.Context, q audit.AuditQuery) ([]models.AuditLog, error)
}

type AuditHandler struct {
	svc AuditReader
}

func NewAuditHandler(svc AuditReader) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) Logs(w http.ResponseWriter, r *http.Request) {
	q := audit.AuditQuery{
		Action: r.URL.Query().Get("action"),
	}

	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			q.StartDate = &t
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err == nil {
			q.EndDate = &t
		}
	}

	logs, err := h.svc.GetAuditLogs(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"audit_logs": logs, "count": len(logs)})
}
