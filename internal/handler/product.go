package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/catalogify/product-catalog-api/internal/repository"
	"github.com/catalogify/product-catalog-api/internal/service"
)

// ProductHandler exposes the catalog CRUD endpoints.
type ProductHandler struct {
	Products *service.ProductService
}

func NewProductHandler(p *service.ProductService) *ProductHandler {
	return &ProductHandler{Products: p}
}

// ----- DTOs -----

type productReq struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"required,max=2000"`
	SKU           string  `json:"sku" validate:"required,max=50,sku"`
	Price         float64 `json:"price" validate:"required,gt=0,lt=1000000"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
	Category      string  `json:"category" validate:"required,category"`
	ImageURL      string  `json:"imageUrl" validate:"omitempty,max=500,http_url"`
	IsActive      bool    `json:"isActive"`
}

func (r productReq) toInput() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		SKU:           r.SKU,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		Category:      repository.Category(r.Category),
		ImageURL:      r.ImageURL,
		IsActive:      r.IsActive,
	}
}

type productResp struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	SKU           string    `json:"sku"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"imageUrl"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toProductResp(p *repository.Product) productResp {
	return productResp{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		Price:         float64(p.PriceCents) / 100,
		StockQuantity: p.StockQuantity,
		Category:      string(p.Category),
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductResps(items []*repository.Product) []productResp {
	out := make([]productResp, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResp(p))
	}
	return out
}

type pagedResp struct {
	Items           []productResp `json:"items"`
	TotalCount      int64         `json:"totalCount"`
	PageNumber      int           `json:"pageNumber"`
	PageSize        int           `json:"pageSize"`
	TotalPages      int           `json:"totalPages"`
	HasPreviousPage bool          `json:"hasPreviousPage"`
	HasNextPage     bool          `json:"hasNextPage"`
}

func toPagedResp(page service.PagedProducts) pagedResp {
	totalPages := int((page.TotalCount + int64(page.PageSize) - 1) / int64(page.PageSize))
	return pagedResp{
		Items:           toProductResps(page.Items),
		TotalCount:      page.TotalCount,
		PageNumber:      page.PageNumber,
		PageSize:        page.PageSize,
		TotalPages:      totalPages,
		HasPreviousPage: page.PageNumber > 1,
		HasNextPage:     page.PageNumber < totalPages,
	}
}

// List handles GET /api/v1/products?pageNumber=&pageSize=.
func (h *ProductHandler) List(c echo.Context) error {
	page := queryInt(c, "pageNumber", 1)
	size := queryInt(c, "pageSize", 10)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	result, err := h.Products.List(ctx, page, size)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list products"})
	}
	return c.JSON(http.StatusOK, toPagedResp(result))
}

// GetByID handles GET /api/v1/products/:id.
func (h *ProductHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load product"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Create handles POST /api/v1/products (requires access token).
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Products.Create(ctx, req.toInput())
	if err != nil {
		if errors.Is(err, repository.ErrSKUExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": "sku already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create product"})
	}
	return c.JSON(http.StatusCreated, toProductResp(p))
}

// Update handles PUT /api/v1/products/:id (requires access token).  All
// mutable fields are replaced.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	p, err := h.Products.Update(ctx, id, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		case errors.Is(err, repository.ErrSKUExists):
			return c.JSON(http.StatusConflict, echo.Map{"message": "sku already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update product"})
	}
	return c.JSON(http.StatusOK, toProductResp(p))
}

// Delete handles DELETE /api/v1/products/:id (requires access token).
// Deleting an unknown id still returns 204; soft delete is idempotent.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not delete product"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search handles GET /api/v1/products/search?q=.  Results are unpaginated.
func (h *ProductHandler) Search(c echo.Context) error {
	term := c.QueryParam("q")
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "search term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	items, err := h.Products.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "search failed"})
	}
	return c.JSON(http.StatusOK, toProductResps(items))
}

func queryInt(c echo.Context, name string, def int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
