package service

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/catalogify/product-catalog-api/internal/queue"
	"github.com/catalogify/product-catalog-api/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductStore is the persistence surface the product service depends on.
// *repository.ProductRepo satisfies it.
type ProductStore interface {
	Create(ctx context.Context, p *repository.Product) error
	GetByID(ctx context.Context, id uint64) (*repository.Product, error)
	List(ctx context.Context, page, size int) ([]*repository.Product, int64, error)
	Update(ctx context.Context, p *repository.Product) error
	SoftDelete(ctx context.Context, id uint64) error
	Search(ctx context.Context, term string) ([]*repository.Product, error)
}

// EventPublisher pushes catalog change events to the message broker.
// Publishing is best-effort: failures are logged, never surfaced.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, ev queue.ProductEvent) error
}

// ProductInput carries the mutable fields of a product as submitted by a
// client.  Price is a decimal amount; the service converts it to cents.
type ProductInput struct {
	Name          string
	Description   string
	SKU           string
	Price         float64
	StockQuantity int
	Category      repository.Category
	ImageURL      string
	IsActive      bool
}

// PagedProducts is one page of the catalog listing together with the
// effective pagination parameters after clamping.
type PagedProducts struct {
	Items      []*repository.Product
	TotalCount int64
	PageNumber int
	PageSize   int
}

// ProductService implements the soft-delete-aware catalog operations.
// events may be nil, in which case no events are published.
type ProductService struct {
	store  ProductStore
	events EventPublisher
}

func NewProductService(store ProductStore, events EventPublisher) *ProductService {
	return &ProductService{store: store, events: events}
}

// List returns one page of non-deleted products, newest first.  Page and
// size are clamped to sane bounds rather than rejected.
func (s *ProductService) List(ctx context.Context, page, size int) (PagedProducts, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, total, err := s.store.List(ctx, page, size)
	if err != nil {
		return PagedProducts{}, err
	}
	return PagedProducts{Items: items, TotalCount: total, PageNumber: page, PageSize: size}, nil
}

// GetByID returns a single product or repository.ErrProductNotFound.
func (s *ProductService) GetByID(ctx context.Context, id uint64) (*repository.Product, error) {
	return s.store.GetByID(ctx, id)
}

// Create persists a new product.  SKU uniqueness is enforced by the store's
// unique index and surfaces as repository.ErrSKUExists.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*repository.Product, error) {
	p := productFromInput(in)
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, "created", p)
	return p, nil
}

// Update fully replaces the mutable fields of an existing product.
func (s *ProductService) Update(ctx context.Context, id uint64, in ProductInput) (*repository.Product, error) {
	p := productFromInput(in)
	p.ID = id
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, "updated", p)
	return p, nil
}

// Delete soft-deletes a product.  Unknown ids succeed silently; the
// operation is idempotent.
func (s *ProductService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "deleted", &repository.Product{ID: id})
	return nil
}

// Search returns all non-deleted products matching the term.
func (s *ProductService) Search(ctx context.Context, term string) ([]*repository.Product, error) {
	return s.store.Search(ctx, term)
}

func (s *ProductService) publish(ctx context.Context, action string, p *repository.Product) {
	if s.events == nil {
		return
	}
	ev := queue.ProductEvent{
		Action:     action,
		ProductID:  p.ID,
		Name:       p.Name,
		SKU:        p.SKU,
		PriceCents: p.PriceCents,
		Category:   string(p.Category),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishProductEvent(ctx, ev); err != nil {
		log.Printf("catalog events: publish %s for product %d failed: %v", action, p.ID, err)
	}
}

func productFromInput(in ProductInput) *repository.Product {
	return &repository.Product{
		Name:          in.Name,
		Description:   in.Description,
		SKU:           in.SKU,
		PriceCents:    uint64(math.Round(in.Price * 100)),
		StockQuantity: in.StockQuantity,
		Category:      in.Category,
		ImageURL:      in.ImageURL,
		IsActive:      in.IsActive,
	}
}
