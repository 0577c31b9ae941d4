package admin

import (
	"encoding/json"
	"net/http"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/handler"
	"github.com/google/uuid"
)

type addImageRequest struct {
	URL     string `json:"url"`
	Primary bool   `json:"primary"`
}

// AddImage handles POST /admin/products/{id}/images
func (h *ProductHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("image.add", "product id required"))
		return
	}

	var req addImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("image.add", "invalid request body"))
		return
	}

	img, err := h.products.AddImage(r.Context(), actorID(r), productID, req.URL, req.Primary)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusCreated, imageResponse{
		ID:           img.ID,
		URL:          img.URL,
		DisplayOrder: img.DisplayOrder,
		IsPrimary:    img.IsPrimary,
	})
}

// RemoveImage handles DELETE /admin/images/{id}
func (h *ProductHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("image.remove", "invalid image id"))
		return
	}

	if err := h.products.RemoveImage(r.Context(), actorID(r), imageID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      imageID,
	})
}

// SetPrimaryImage handles POST /admin/images/{id}/primary
func (h *ProductHandler) SetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("image.set_primary", "invalid image id"))
		return
	}

	if err := h.products.SetPrimaryImage(r.Context(), actorID(r), imageID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      imageID,
	})
}
