package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/catalogify/product-catalog-api/internal/auth"
	"github.com/catalogify/product-catalog-api/internal/handler"
	"github.com/catalogify/product-catalog-api/internal/middleware"
	"github.com/catalogify/product-catalog-api/internal/repository"
	"github.com/catalogify/product-catalog-api/internal/router"
	"github.com/catalogify/product-catalog-api/internal/service"
)

// newTestAPI wires the full HTTP surface against in-memory stores.
func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()

	const (
		secret   = "test-secret"
		issuer   = "catalog-test"
		audience = "catalog-clients"
	)

	users := &memUserStore{users: map[uint64]repository.User{}}
	products := &memProductStore{products: map[uint64]repository.Product{}}

	tokenIssuer := auth.NewIssuer(secret, issuer, audience, 60, 7)
	authSvc := service.NewAuthService(users, tokenIssuer, bcrypt.MinCost)
	productSvc := service.NewProductService(products, nil)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = router.HTTPErrorHandler

	guard := middleware.JWTAuth(auth.NewValidator(secret, issuer, audience))
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), guard)
	router.RegisterProducts(e, handler.NewProductHandler(productSvc), guard, nil)
	return e
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func decodeJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []any {
	t.Helper()
	var out []any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// registerUser registers a fresh account and returns its token pair.
func registerUser(t *testing.T, e *echo.Echo) (accessToken, refreshToken string) {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/api/v1/auth/register",
		`{"email":"alice@example.com","password":"Secret123","firstName":"Alice","lastName":"Smith"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	return body["accessToken"].(string), body["refreshToken"].(string)
}

// ----- in-memory stores -----

type memUserStore struct {
	mu    sync.Mutex
	seq   uint64
	users map[uint64]repository.User
}

func (m *memUserStore) Create(_ context.Context, email, passwordHash, firstName, lastName string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.seq++
	m.users[m.seq] = repository.User{
		ID: m.seq, Email: email, PasswordHash: passwordHash,
		FirstName: firstName, LastName: lastName, CreatedAt: time.Now().UTC(),
	}
	return m.seq, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id uint64) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserStore) GetByRefreshTokenHash(_ context.Context, tokenHash string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RefreshTokenHash.Valid && u.RefreshTokenHash.String == tokenHash {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) SetRefreshToken(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = sql.NullString{String: tokenHash, Valid: true}
	u.RefreshTokenExpiresAt = sql.NullTime{Time: exp, Valid: true}
	m.users[userID] = u
	return nil
}

func (m *memUserStore) ClearRefreshToken(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = sql.NullString{}
	u.RefreshTokenExpiresAt = sql.NullTime{}
	m.users[userID] = u
	return nil
}

type memProductStore struct {
	mu       sync.Mutex
	seq      uint64
	products map[uint64]repository.Product
}

func (m *memProductStore) Create(_ context.Context, p *repository.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return repository.ErrSKUExists
		}
	}
	m.seq++
	p.ID = m.seq
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p
	return nil
}

func (m *memProductStore) GetByID(_ context.Context, id uint64) (*repository.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return nil, repository.ErrProductNotFound
	}
	cp := p
	return &cp, nil
}

func (m *memProductStore) List(_ context.Context, page, size int) ([]*repository.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := m.liveSorted()
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

func (m *memProductStore) Update(_ context.Context, p *repository.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok || cur.IsDeleted {
		return repository.ErrProductNotFound
	}
	for id, other := range m.products {
		if id != p.ID && other.SKU == p.SKU {
			return repository.ErrSKUExists
		}
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.products[p.ID] = *p
	return nil
}

func (m *memProductStore) SoftDelete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.IsDeleted = true
		m.products[id] = p
	}
	return nil
}

func (m *memProductStore) Search(_ context.Context, term string) ([]*repository.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	term = strings.ToLower(term)
	var out []*repository.Product
	for _, p := range m.liveSorted() {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) ||
			strings.Contains(strings.ToLower(p.SKU), term) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProductStore) liveSorted() []*repository.Product {
	var live []*repository.Product
	for id := range m.products {
		p := m.products[id]
		if !p.IsDeleted {
			cp := p
			live = append(live, &cp)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID > live[j].ID })
	return live
}
