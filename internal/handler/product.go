package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/superc/price-alert/internal/repository"
)

// ProductHandler serves the public product search. The route sits behind the
// response cache middleware; no authentication is required.
type ProductHandler struct {
	Products *repository.ProductRepo
}

func NewProductHandler(p *repository.ProductRepo) *ProductHandler {
	return &ProductHandler{Products: p}
}

// Search returns catalog entries matching the q parameter.
func (h *ProductHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Products.Search(ctx, q, 25)
	if err != nil {
		c.Logger().Errorf("products: search failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	type product struct {
		ProductNumber string  `json:"productNumber"`
		Name          string  `json:"name"`
		ImageURL      string  `json:"imageUrl"`
		Unit          string  `json:"unit"`
		CurrentPrice  float64 `json:"currentPrice"`
	}
	out := make([]product, 0, len(items))
	for _, p := range items {
		out = append(out, product{
			ProductNumber: p.ProductNumber, Name: p.Name, ImageURL: p.ImageURL,
			Unit: p.Unit, CurrentPrice: p.CurrentPrice,
		})
	}
	return c.JSON(http.StatusOK, out)
}
