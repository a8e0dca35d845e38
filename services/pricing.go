package services

import (
	"context"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
	"go-pizzeria-management/repository"
)

// LineItemRequest is one product selection as sent by the client. Prices are
// never taken from it.
type LineItemRequest struct {
	ProductID string   `json:"product_id" validate:"required"`
	Quantity  int      `json:"quantity" validate:"min=1"`
	Size      string   `json:"size" validate:"required"`
	Flavors   []string `json:"flavors"`
	Crust     string   `json:"crust"`
	Addons    []string `json:"addons"`
	Note      string   `json:"note" validate:"max=500"`
}

// Pricer resolves requested line items against the catalog.
type Pricer struct {
	products repository.ProductRepository
}

func NewPricer(products repository.ProductRepository) *Pricer {
	return &Pricer{products: products}
}

// Price returns the resolved line items and the order total. It fails on the
// first product or size that cannot be sold; an unavailable crust or addon is
// dropped from the line instead.
func (p *Pricer) Price(ctx context.Context, requests []LineItemRequest) ([]models.LineItem, models.Money, error) {
	var total models.Money
	if len(requests) == 0 {
		return nil, total, apperrors.Validation("at least one item is required")
	}

	items := make([]models.LineItem, 0, len(requests))
	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, models.Money{}, apperrors.Validation("quantity must be at least 1")
		}

		product, err := p.products.FindByID(ctx, req.ProductID)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				return nil, models.Money{}, apperrors.ProductUnavailable("product not found or unavailable: %s", req.ProductID)
			}
			return nil, models.Money{}, err
		}
		if !product.Available {
			return nil, models.Money{}, apperrors.ProductUnavailable("product not found or unavailable: %s", product.Name)
		}

		size, ok := models.FindOption(product.Sizes, req.Size)
		if !ok {
			return nil, models.Money{}, apperrors.SizeUnavailable("size not available for %s: %s", product.Name, req.Size)
		}

		unit := size.Price
		item := models.LineItem{
			Product_id:   product.ID,
			Product_name: product.Name,
			Quantity:     req.Quantity,
			Size:         size.Name,
			Flavors:      req.Flavors,
			Note:         req.Note,
			Prep_minutes: product.PrepMinutes,
		}

		if req.Crust != "" {
			if crust, ok := models.FindOption(product.Crusts, req.Crust); ok {
				unit = unit.Add(crust.Price)
				item.Crust = &models.SelectedOption{Name: crust.Name, Price: crust.Price}
			}
		}
		for _, name := range req.Addons {
			if addon, ok := models.FindOption(product.Addons, name); ok {
				unit = unit.Add(addon.Price)
				item.Addons = append(item.Addons, models.SelectedOption{Name: addon.Name, Price: addon.Price})
			}
		}

		item.Price = unit.Times(req.Quantity)
		total = total.Add(item.Price)
		items = append(items, item)
	}
	return items, total, nil
}
