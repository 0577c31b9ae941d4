package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aldermarket/alder/internal/domain"
	"github.com/aldermarket/alder/internal/handler"
	"github.com/aldermarket/alder/internal/middleware"
	"github.com/aldermarket/alder/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductHandler handles all product-related admin routes.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// actorID extracts the acting staff identifier from the request.
// Authentication happens upstream; this header is set by the gateway.
func actorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(middleware.ActorIDHeader))
}

type createProductRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	Tags        string          `json:"tags"`
	Unit        string          `json:"unit"`
	Available   bool            `json:"available"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
	ImageURLs   []string        `json:"image_urls"`
}

// Create handles POST /admin/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.create", "invalid request body"))
		return
	}

	result, err := h.products.Create(r.Context(), actorID(r), domain.CreateProductParams{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
		Unit:        req.Unit,
		Available:   req.Available,
		Featured:    req.Featured,
		Image:       req.Image,
	}, req.ImageURLs)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusCreated, result)
}

type updateProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  string           `json:"category_id"`
	Tags        string           `json:"tags"`
	Unit        string           `json:"unit"`
	Available   *bool            `json:"available"`
	Featured    *bool            `json:"featured"`
	Image       string           `json:"image"`
}

// Update handles PATCH /admin/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("product.update", "product id required"))
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.update", "invalid request body"))
		return
	}

	result, err := h.products.Update(r.Context(), actorID(r), productID, domain.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
		Unit:        req.Unit,
		Available:   req.Available,
		Featured:    req.Featured,
		Image:       req.Image,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusOK, result)
}

// Delete handles DELETE /admin/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("product.delete", "product id required"))
		return
	}

	if err := h.products.Delete(r.Context(), actorID(r), productID); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      productID,
	})
}

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	Tags        []string        `json:"tags"`
	Unit        string          `json:"unit,omitempty"`
	Available   bool            `json:"available"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
	Images      []imageResponse `json:"images,omitempty"`
	Inventory   []stockResponse `json:"inventory,omitempty"`
}

type imageResponse struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	DisplayOrder int32     `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
}

type stockResponse struct {
	Location     string `json:"location"`
	Quantity     int32  `json:"quantity"`
	ReorderLevel int32  `json:"reorder_level"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		Tags:        p.Tags,
		Unit:        p.Unit,
		Available:   p.Available,
		Featured:    p.Featured,
		Image:       p.Image,
	}
}

// Detail handles GET /admin/products/{id}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if productID == "" {
		handler.ErrorResponse(w, r, domain.Invalid("product.get", "product id required"))
		return
	}

	detail, err := h.products.Get(r.Context(), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := toProductResponse(detail.Product)
	for _, img := range detail.Images {
		resp.Images = append(resp.Images, imageResponse{
			ID:           img.ID,
			URL:          img.URL,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		})
	}
	for _, inv := range detail.Inventory {
		resp.Inventory = append(resp.Inventory, stockResponse{
			Location:     inv.Location,
			Quantity:     inv.Quantity,
			ReorderLevel: inv.ReorderLevel,
		})
	}

	handler.JSONResponse(w, http.StatusOK, resp)
}

// List handles GET /admin/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	handler.JSONResponse(w, http.StatusOK, map[string]any{
		"products": resp,
		"count":    len(resp),
	})
}
