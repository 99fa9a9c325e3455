package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/catalogify/product-catalog-api/internal/queue"
	"github.com/catalogify/product-catalog-api/internal/repository"
)

// fakeUserStore is a map-backed UserStore with the same semantics the MySQL
// repository exposes: unique lowercase emails, hash-keyed session lookup.
type fakeUserStore struct {
	mu    sync.Mutex
	seq   uint64
	users map[uint64]repository.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]repository.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, email, passwordHash, firstName, lastName string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	f.seq++
	f.users[f.seq] = repository.User{
		ID:           f.seq,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now().UTC(),
	}
	return f.seq, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByRefreshTokenHash(_ context.Context, tokenHash string) (repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.RefreshTokenHash.Valid && u.RefreshTokenHash.String == tokenHash {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) SetRefreshToken(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = sql.NullString{String: tokenHash, Valid: true}
	u.RefreshTokenExpiresAt = sql.NullTime{Time: exp, Valid: true}
	f.users[userID] = u
	return nil
}

func (f *fakeUserStore) ClearRefreshToken(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = sql.NullString{}
	u.RefreshTokenExpiresAt = sql.NullTime{}
	f.users[userID] = u
	return nil
}

// fakeProductStore mirrors the repository's soft-delete and SKU-uniqueness
// behavior, including reserving the SKUs of soft-deleted rows.
type fakeProductStore struct {
	mu       sync.Mutex
	seq      uint64
	products map[uint64]repository.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[uint64]repository.Product{}}
}

func (f *fakeProductStore) Create(_ context.Context, p *repository.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.products {
		if existing.SKU == p.SKU {
			return repository.ErrSKUExists
		}
	}
	f.seq++
	p.ID = f.seq
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) GetByID(_ context.Context, id uint64) (*repository.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrProductNotFound
	}
	cp := p
	return &cp, nil
}

func (f *fakeProductStore) List(_ context.Context, page, size int) ([]*repository.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	live := f.liveSorted()
	total := int64(len(live))
	start := (page - 1) * size
	if start >= len(live) {
		return nil, total, nil
	}
	end := start + size
	if end > len(live) {
		end = len(live)
	}
	return live[start:end], total, nil
}

func (f *fakeProductStore) Update(_ context.Context, p *repository.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.products[p.ID]
	if !ok || cur.IsDeleted {
		return repository.ErrProductNotFound
	}
	for id, other := range f.products {
		if id != p.ID && other.SKU == p.SKU {
			return repository.ErrSKUExists
		}
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) SoftDelete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		p.IsDeleted = true
		f.products[id] = p
	}
	return nil
}

func (f *fakeProductStore) Search(_ context.Context, term string) ([]*repository.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	term = strings.ToLower(term)
	var out []*repository.Product
	for _, p := range f.liveSorted() {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.SKU), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) liveSorted() []*repository.Product {
	var live []*repository.Product
	for id := range f.products {
		p := f.products[id]
		if !p.IsDeleted {
			cp := p
			live = append(live, &cp)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID > live[j].ID })
	return live
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ProductEvent
}

func (r *recordingPublisher) PublishProductEvent(_ context.Context, ev queue.ProductEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action
	}
	return out
}
