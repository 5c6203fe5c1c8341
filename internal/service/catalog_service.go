package service

import (
	"context"
	"fmt"

	"stockledger/internal/domain"
	"stockledger/internal/repository"
)

// CatalogService defines the interface for product catalog logic.
type CatalogService interface {
	CreateProduct(ctx context.Context, name string, buyingPrice, sellingPrice float64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// CreateProduct adds a product to the catalog.
func (s *catalogService) CreateProduct(ctx context.Context, name string, buyingPrice, sellingPrice float64) (*domain.Product, error) {
	product := &domain.Product{
		Name:         name,
		BuyingPrice:  buyingPrice,
		SellingPrice: sellingPrice,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// ListProducts enumerates the catalog.
func (s *catalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.productRepo.List(ctx)
}
