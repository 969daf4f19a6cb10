package service

import (
	"context"

	"water-delivery-backend/internal/model"
)

type ProductRepository interface {
	All(ctx context.Context) ([]model.Product, error)
}

type CatalogService struct {
	products ProductRepository
}

func NewCatalogService(products ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Products(ctx context.Context) ([]model.Product, error) {
	return s.products.All(ctx)
}
