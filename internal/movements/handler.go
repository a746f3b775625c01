package movements

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NDJ-create/backend-stockage-clean/internal/platform/httpx"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// Handler exposes the movement ledger read endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the movements handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers movement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	entries, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
