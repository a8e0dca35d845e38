package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
	"go-pizzeria-management/repository"
)

type ProductRequest struct {
	Name         string               `json:"name" validate:"required,min=2,max=100"`
	Category     models.Category      `json:"category" validate:"required,oneof=pizza drink dessert addon"`
	Description  string               `json:"description" validate:"max=500"`
	Ingredients  []string             `json:"ingredients"`
	Sizes        []models.PriceOption `json:"sizes" validate:"required,min=1,dive"`
	Crusts       []models.PriceOption `json:"crusts" validate:"dive"`
	Addons       []models.PriceOption `json:"addons" validate:"dive"`
	PrepMinutes  *int                 `json:"prep_minutes" validate:"omitempty,min=0,max=240"`
	Available    *bool                `json:"available"`
	Vegetarian   bool                 `json:"vegetarian"`
	Image        string               `json:"image"`
	DisplayOrder int                  `json:"display_order"`
}

type ProductQuery struct {
	Category string
	// Available defaults to true; pass false to list withdrawn products.
	Available *bool
	All       bool
	Search    string
}

type ProductService struct {
	products repository.ProductRepository
	log      *logrus.Logger
	now      func() time.Time
}

func NewProductService(products repository.ProductRepository, log *logrus.Logger) *ProductService {
	return &ProductService{
		products: products,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func validatePrices(options []models.PriceOption, what string) error {
	for _, o := range options {
		if o.Price.IsNegative() {
			return apperrors.Validation("%s %s has a negative price", what, o.Name)
		}
	}
	return nil
}

func (s *ProductService) checkRequest(req *ProductRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return err
	}
	if err := validatePrices(req.Sizes, "size"); err != nil {
		return err
	}
	if err := validatePrices(req.Crusts, "crust"); err != nil {
		return err
	}
	return validatePrices(req.Addons, "addon")
}

func (s *ProductService) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	filter := repository.ProductFilter{Search: strings.TrimSpace(q.Search)}
	if q.Category != "" {
		category := models.Category(q.Category)
		if !category.Valid() {
			return nil, apperrors.Validation("invalid category %q", q.Category)
		}
		filter.Category = category
	}
	if !q.All {
		available := true
		if q.Available != nil {
			available = *q.Available
		}
		filter.Available = &available
	}
	return s.products.List(ctx, filter)
}

func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.products.Categories(ctx)
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) apply(p *models.Product, req ProductRequest) {
	p.Name = req.Name
	p.Category = req.Category
	p.Description = req.Description
	p.Ingredients = req.Ingredients
	p.Sizes = req.Sizes
	p.Crusts = req.Crusts
	p.Addons = req.Addons
	p.Vegetarian = req.Vegetarian
	p.Image = req.Image
	p.DisplayOrder = req.DisplayOrder
	if req.PrepMinutes != nil {
		p.PrepMinutes = *req.PrepMinutes
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
}

func (s *ProductService) Create(ctx context.Context, req ProductRequest) (*models.Product, error) {
	if err := s.checkRequest(&req); err != nil {
		return nil, err
	}
	exists, err := s.products.ExistsByNameAndCategory(ctx, req.Name, req.Category)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("a %s named %s already exists", req.Category, req.Name)
	}

	now := s.now()
	product := &models.Product{
		ID:          primitive.NewObjectID(),
		PrepMinutes: models.DefaultPrepMinutes,
		Available:   true,
		Created_at:  now,
		Updated_at:  now,
	}
	s.apply(product, req)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"product_id": product.ID.Hex(), "name": product.Name}).Info("product created")
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req ProductRequest) (*models.Product, error) {
	if err := s.checkRequest(&req); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Name != req.Name || product.Category != req.Category {
		exists, err := s.products.ExistsByNameAndCategory(ctx, req.Name, req.Category)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.Conflict("a %s named %s already exists", req.Category, req.Name)
		}
	}

	s.apply(product, req)
	product.Updated_at = s.now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete withdraws a product from sale. Past orders keep referring to it.
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	return s.SetAvailability(ctx, id, false)
}

func (s *ProductService) SetAvailability(ctx context.Context, id string, available bool) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Available = available
	product.Updated_at = s.now()
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"product_id": product.ID.Hex(), "available": available}).Info("product availability changed")
	return product, nil
}
