package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memStore backs every repository with maps. Transactions are serialized and
// rolled back by restoring a snapshot.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[string]domain.User
	tokens   map[string]domain.RefreshToken
	links    map[string]domain.OAuthProvider
	products map[string]domain.Product
	orders   map[string]domain.Order
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]domain.User{},
		tokens:   map[string]domain.RefreshToken{},
		links:    map[string]domain.OAuthProvider{},
		products: map[string]domain.Product{},
		orders:   map[string]domain.Order{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		User:          &memUsers{s},
		Token:         &memTokens{s},
		OAuthProvider: &memLinks{s},
		Product:       &memProducts{s},
		Order:         &memOrders{s},
	}
}

type memTransactor struct {
	store *memStore
	repos *repository.Repositories
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snapshot := t.store.snapshot()
	if err := fn(t.repos); err != nil {
		t.store.restore(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	users    map[string]domain.User
	tokens   map[string]domain.RefreshToken
	links    map[string]domain.OAuthProvider
	products map[string]domain.Product
	orders   map[string]domain.Order
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		users:    copyMap(s.users),
		tokens:   copyMap(s.tokens),
		links:    copyMap(s.links),
		products: copyMap(s.products),
		orders:   copyMap(s.orders),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tokens = snap.tokens
	s.links = snap.links
	s.products = snap.products
	s.orders = snap.orders
}

func (s *memStore) googleID(userID string) *string {
	for _, l := range s.links {
		if l.UserID == userID && l.Provider == domain.ProviderGoogle {
			id := l.ProviderUserID
			return &id
		}
	}
	return nil
}

func (s *memStore) product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type memUsers struct{ s *memStore }

func (r *memUsers) read(u domain.User) *domain.User {
	u.Addresses = append([]domain.Address{}, u.Addresses...)
	u.GoogleID = r.s.googleID(u.ID)
	return &u
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, repository.ErrDuplicateEmail)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt

	stored := *user
	stored.GoogleID = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return r.read(u), nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found: %w", email, repository.ErrNotFound)
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s not found: %w", id, repository.ErrNotFound)
	}
	return r.read(u), nil
}

func (r *memUsers) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, r.read(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *memUsers) update(id string, fn func(u *domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user with id %s not found: %w", id, repository.ErrNotFound)
	}
	fn(&u)
	u.UpdatedAt = r.s.tick()
	r.s.users[id] = u
	return nil
}

func (r *memUsers) UpdateProfile(_ context.Context, user *domain.User) error {
	return r.update(user.ID, func(u *domain.User) {
		u.Name = user.Name
		u.Country = user.Country
		u.Phone = user.Phone
		u.Addresses = append([]domain.Address{}, user.Addresses...)
	})
}

func (r *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return r.update(userID, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *memUsers) UpdateRole(_ context.Context, userID string, role domain.Role) error {
	return r.update(userID, func(u *domain.User) { u.Role = role })
}

func (r *memUsers) UpdateLastLogin(_ context.Context, userID string) error {
	return r.update(userID, func(u *domain.User) {
		now := r.s.clock
		u.LastLoginAt = &now
	})
}

func (r *memUsers) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return fmt.Errorf("user with id %s not found: %w", userID, repository.ErrNotFound)
	}
	delete(r.s.users, userID)
	for id, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, id)
		}
	}
	for key, l := range r.s.links {
		if l.UserID == userID {
			delete(r.s.links, key)
		}
	}
	return nil
}

type memTokens struct{ s *memStore }

func (r *memTokens) Create(_ context.Context, token *domain.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.CreatedAt = r.s.tick()
	r.s.tokens[token.ID] = *token
	return nil
}

func (r *memTokens) GetByID(_ context.Context, tokenID string) (*domain.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenID]
	if !ok {
		return nil, fmt.Errorf("refresh token %s not found: %w", tokenID, repository.ErrNotFound)
	}
	return &t, nil
}

func (r *memTokens) Delete(_ context.Context, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[tokenID]; !ok {
		return fmt.Errorf("refresh token %s not found: %w", tokenID, repository.ErrNotFound)
	}
	delete(r.s.tokens, tokenID)
	return nil
}

func (r *memTokens) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, t := range r.s.tokens {
		if t.UserID == userID {
			delete(r.s.tokens, id)
		}
	}
	return nil
}

func (r *memTokens) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, t := range r.s.tokens {
		if t.IsExpired(time.Now()) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

type memLinks struct{ s *memStore }

func (r *memLinks) Create(_ context.Context, p *domain.OAuthProvider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := p.Provider + ":" + p.ProviderUserID
	if _, ok := r.s.links[key]; ok {
		return fmt.Errorf("provider link exists: %w", repository.ErrDuplicateOAuthProvider)
	}
	for _, l := range r.s.links {
		if l.UserID == p.UserID && l.Provider == p.Provider {
			return fmt.Errorf("user already linked: %w", repository.ErrDuplicateOAuthProvider)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.s.tick()
	r.s.links[key] = *p
	return nil
}

func (r *memLinks) GetByProvider(_ context.Context, provider, providerUserID string) (*domain.OAuthProvider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.links[provider+":"+providerUserID]
	if !ok {
		return nil, fmt.Errorf("provider link not found: %w", repository.ErrNotFound)
	}
	return &l, nil
}

type memProducts struct {
	s *memStore
}

func (r *memProducts) Create(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.s.tick()
	p.UpdatedAt = p.CreatedAt
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %s not found: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (r *memProducts) List(_ context.Context, category string) ([]*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	products := make([]*domain.Product, 0)
	for _, p := range r.s.products {
		if category == "" || p.Category == category {
			p := p
			products = append(products, &p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (r *memProducts) Categories(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[string]bool{}
	categories := make([]string, 0)
	for _, p := range r.s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *memProducts) Update(_ context.Context, id string, c domain.ProductChanges) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %s not found: %w", id, repository.ErrNotFound)
	}
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Image != nil {
		p.Image = *c.Image
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.Stock != nil {
		p.Stock = *c.Stock
	}
	p.UpdatedAt = r.s.tick()
	r.s.products[id] = p
	return &p, nil
}

func (r *memProducts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product with id %s not found: %w", id, repository.ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

func (r *memProducts) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.products), nil
}

func (r *memProducts) DecrementStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product with id %s not found: %w", id, repository.ErrNotFound)
	}
	if p.Stock < quantity {
		return &p, fmt.Errorf("product %s has %d units: %w", id, p.Stock, repository.ErrInsufficientStock)
	}
	p.Stock -= quantity
	r.s.products[id] = p
	return &p, nil
}

type memOrders struct{ s *memStore }

func (r *memOrders) Create(_ context.Context, o *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = r.s.tick()
	stored := *o
	stored.Cart = append([]domain.LineItem{}, o.Cart...)
	r.s.orders[o.ID] = stored
	return nil
}

func (r *memOrders) list(match func(domain.Order) bool) []*domain.Order {
	orders := make([]*domain.Order, 0)
	for _, o := range r.s.orders {
		if match(o) {
			o := o
			orders = append(orders, &o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (r *memOrders) List(_ context.Context) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(domain.Order) bool { return true }), nil
}

func (r *memOrders) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(o domain.Order) bool { return o.UserEmail == email }), nil
}

func (r *memOrders) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[id]; !ok {
		return fmt.Errorf("order with id %s not found: %w", id, repository.ErrNotFound)
	}
	delete(r.s.orders, id)
	return nil
}

func (r *memOrders) DeleteByEmail(_ context.Context, email string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, o := range r.s.orders {
		if o.UserEmail == email {
			delete(r.s.orders, id)
			n++
		}
	}
	return n, nil
}

// memCache is a ListingCache over a map.
type memCache struct {
	mu            sync.Mutex
	entries       map[string][]byte
	invalidations int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Load(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.entries[key]
	return ok && json.Unmarshal(b, dest) == nil
}

func (c *memCache) Store(_ context.Context, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, err := json.Marshal(value); err == nil {
		c.entries[key] = b
	}
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	c.invalidations++
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []domain.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OrderEvent{}, p.events...)
}

var errBrokerDown = errors.New("broker unavailable")

type testEnv struct {
	store     *memStore
	repos     *repository.Repositories
	jwt       *utils.JWTManager
	cache     *memCache
	publisher *recordingPublisher

	auth    AuthService
	users   UserService
	catalog CatalogService
	orders  OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newMemStore()
	repos := store.repositories()
	tx := &memTransactor{store: store, repos: repos}

	metrics, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	jwtManager := utils.NewJWTManager(
		"access-secret-for-tests-0123456789abcdef",
		"refresh-secret-for-tests-0123456789abcdef",
		time.Hour,
		24*time.Hour,
	)
	logger := zap.NewNop()
	cache := newMemCache()
	publisher := &recordingPublisher{}

	return &testEnv{
		store:     store,
		repos:     repos,
		jwt:       jwtManager,
		cache:     cache,
		publisher: publisher,
		auth: NewAuthService(repos, tx, jwtManager, metrics, logger, AuthOptions{
			BCryptCost:          bcrypt.MinCost,
			AllowedEmailDomains: []string{"gmail.com", "hotmail.com", "outlook.com"},
		}),
		users:   NewUserService(repos, tx, bcrypt.MinCost, logger),
		catalog: NewCatalogService(repos, tx, cache, logger),
		orders:  NewOrderService(repos, tx, cache, publisher, metrics, logger),
	}
}

func (e *testEnv) addProduct(t *testing.T, title, category, price string, stock int) *domain.Product {
	t.Helper()

	p := &domain.Product{
		Title:    title,
		Image:    "https://img.example/" + title + ".png",
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	if err := e.repos.Product.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func (e *testEnv) addUser(t *testing.T, email, password string, role domain.Role) *domain.User {
	t.Helper()

	u := &domain.User{Name: "Test User", Email: email, Role: role, Country: domain.DefaultCountry}
	if password != "" {
		hash, err := utils.HashPassword(password, bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		u.PasswordHash = hash
	}
	if err := e.repos.User.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
