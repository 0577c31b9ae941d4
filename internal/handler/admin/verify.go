package admin

import (
	"net/http"

	"github.com/aldermarket/alder/internal/handler"
	"github.com/aldermarket/alder/internal/service"
)

// VerifyHandler exposes the consistency verifier as an admin endpoint.
type VerifyHandler struct {
	verifier *service.Verifier
}

// NewVerifyHandler creates a new verify handler.
func NewVerifyHandler(verifier *service.Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// Run handles POST /admin/verify
func (h *VerifyHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.verifier.VerifyAndRepair(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusOK, report)
}
