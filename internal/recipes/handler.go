package recipes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/NDJ-create/backend-stockage-clean/internal/platform/httpx"
	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// Handler wires HTTP endpoints for the recipes module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the recipes handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers recipe routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleAdd)
	r.Get("/", h.handleList)
	r.Post("/with-stock", h.handleAddWithStock)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

type ingredientRequest struct {
	StockItemID string          `json:"stockItemId" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

type addRecipeRequest struct {
	Name        string              `json:"name" validate:"required"`
	Price       decimal.Decimal     `json:"price"`
	Category    string              `json:"category"`
	Ingredients []ingredientRequest `json:"ingredients" validate:"required,min=1,dive"`
}

func (req addRecipeRequest) toInput() AddInput {
	input := AddInput{Name: req.Name, Price: req.Price, Category: req.Category}
	for _, ing := range req.Ingredients {
		input.Ingredients = append(input.Ingredients, IngredientInput{
			StockItemID: ing.StockItemID,
			Quantity:    ing.Quantity,
			Unit:        ing.Unit,
		})
	}
	return input
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req addRecipeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	recipe, err := h.service.Add(r.Context(), actor, req.toInput())
	if err != nil {
		h.logger.Error("add recipe", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, recipe)
}

type updateRecipeRequest struct {
	Name        *string             `json:"name"`
	Price       *decimal.Decimal    `json:"price"`
	Category    *string             `json:"category"`
	Ingredients []ingredientRequest `json:"ingredients" validate:"omitempty,min=1,dive"`
}

func (req updateRecipeRequest) toInput() UpdateInput {
	input := UpdateInput{Name: req.Name, Price: req.Price, Category: req.Category}
	if req.Ingredients != nil {
		input.Ingredients = make([]IngredientInput, 0, len(req.Ingredients))
		for _, ing := range req.Ingredients {
			input.Ingredients = append(input.Ingredients, IngredientInput{
				StockItemID: ing.StockItemID,
				Quantity:    ing.Quantity,
				Unit:        ing.Unit,
			})
		}
	}
	return input
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req updateRecipeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	recipe, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, recipe)
}

func (h *Handler) handleAddWithStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	var req addRecipeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	recipe, err := h.service.AddWithStockConsumption(r.Context(), actor, req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, recipe)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
		return
	}
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}
