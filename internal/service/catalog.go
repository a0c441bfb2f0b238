package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/repository"
	"github.com/iliyamo/ekharid/internal/storage"
)

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	Stock       int
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	Hidden      *bool
}

// CatalogService manages product listings and their images.
type CatalogService struct {
	Users    repository.UserStore
	Products repository.ProductStore
	Uploader storage.Uploader
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(users repository.UserStore, products repository.ProductStore, up storage.Uploader) *CatalogService {
	return &CatalogService{Users: users, Products: products, Uploader: up}
}

// Create lists a new product for sellerID.  Images are stored before the
// product; if anything fails afterwards the stored files are removed.
func (s *CatalogService) Create(ctx context.Context, sellerID string, in ProductInput, uploads []storage.Upload) (*model.Product, error) {
	seller, err := s.Users.UserByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.Role != model.RoleSeller {
		return nil, fmt.Errorf("seller %w", model.ErrNotFound)
	}

	p := &model.Product{
		SellerID:    seller.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
		Stock:       in.Stock,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", model.ErrValidation)
	}
	if len(uploads) > model.MaxImagesPerUpload {
		return nil, fmt.Errorf("%w: at most %d images per request", model.ErrValidation, model.MaxImagesPerUpload)
	}

	images, err := s.storeImages(ctx, uploads)
	if err != nil {
		return nil, err
	}
	p.Images = images
	p.EnsurePrimaryImage()
	if err := s.Products.InsertProduct(ctx, p); err != nil {
		s.removeImages(ctx, images)
		return nil, err
	}
	return p, nil
}

// Update applies patch to a product owned by actorID and appends any new
// images.
func (s *CatalogService) Update(ctx context.Context, actorID, productID string, patch ProductPatch, uploads []storage.Upload) (*model.Product, error) {
	if len(uploads) > model.MaxImagesPerUpload {
		return nil, fmt.Errorf("%w: at most %d images per request", model.ErrValidation, model.MaxImagesPerUpload)
	}
	if _, err := s.owned(ctx, actorID, productID); err != nil {
		return nil, err
	}

	images, err := s.storeImages(ctx, uploads)
	if err != nil {
		return nil, err
	}
	p, err := mutateProduct(ctx, s.Products, productID, func(p *model.Product) error {
		if p.SellerID != actorID {
			return fmt.Errorf("%w: product %s belongs to another seller", model.ErrForbidden, p.ID)
		}
		applyPatch(p, patch)
		p.Images = append(p.Images, images...)
		p.EnsurePrimaryImage()
		return p.Validate()
	})
	if err != nil {
		s.removeImages(ctx, images)
		return nil, err
	}
	return p, nil
}

func applyPatch(p *model.Product, patch ProductPatch) {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Hidden != nil {
		p.Hidden = *patch.Hidden
	}
}

// Delete removes a product owned by actorID.  Its image files are removed
// afterwards on a best-effort basis.
func (s *CatalogService) Delete(ctx context.Context, actorID, productID string) error {
	p, err := s.owned(ctx, actorID, productID)
	if err != nil {
		return err
	}
	if err := s.Products.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	s.removeImages(ctx, p.Images)
	return nil
}

// ListAll returns the whole catalog.
func (s *CatalogService) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.Products.ListProducts(ctx, repository.ProductQuery{})
}

// ListBySeller returns the products owned by sellerID.
func (s *CatalogService) ListBySeller(ctx context.Context, sellerID string) ([]model.Product, error) {
	return s.Products.ListProducts(ctx, repository.ProductQuery{SellerID: sellerID})
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, productID string) (*model.Product, error) {
	return s.Products.ProductByID(ctx, productID)
}

// Search returns products whose title, description or category equals
// text exactly.  Partial words do not match.
func (s *CatalogService) Search(ctx context.Context, text string) ([]model.Product, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: searchText is required", model.ErrValidation)
	}
	return s.Products.ListProducts(ctx, repository.ProductQuery{Text: text})
}

func (s *CatalogService) owned(ctx context.Context, actorID, productID string) (*model.Product, error) {
	p, err := s.Products.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != actorID {
		return nil, fmt.Errorf("%w: product %s belongs to another seller", model.ErrForbidden, p.ID)
	}
	return p, nil
}

// storeImages saves uploads one by one.  On the first failure every file
// saved so far is removed again.
func (s *CatalogService) storeImages(ctx context.Context, uploads []storage.Upload) ([]model.Image, error) {
	images := make([]model.Image, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.Uploader.Save(ctx, u)
		if err != nil {
			s.removeImages(ctx, images)
			return nil, fmt.Errorf("store image %s: %w", u.Filename, err)
		}
		images = append(images, model.Image{URL: url})
	}
	return images, nil
}

func (s *CatalogService) removeImages(ctx context.Context, images []model.Image) {
	for _, img := range images {
		if err := s.Uploader.Remove(context.WithoutCancel(ctx), img.URL); err != nil {
			log.Printf("catalog: remove image %s: %v", img.URL, err)
		}
	}
}
