package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/ekharid/internal/model"
)

// MemoryStore keeps users and products in process memory.  It backs
// STORE_DRIVER=memory for local runs and is the store used by service and
// handler tests.  Values are cloned on the way in and out so callers never
// share slices with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      uint64
	users    map[string]model.User
	products map[string]*model.Product
	order    []string // product ids in insertion order
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]model.User),
		products: make(map[string]*model.Product),
	}
}

func (s *MemoryStore) nextID() string {
	s.seq++
	return strconv.FormatUint(s.seq, 10)
}

// CreateUser inserts u and assigns its ID.
func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailExists
		}
		if existing.Username == u.Username {
			return ErrUsernameExists
		}
	}
	u.ID = s.nextID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

// UserByID fetches a user by id.
func (s *MemoryStore) UserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// UserByEmail fetches a user by email, case-insensitively.
func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// InsertProduct stores p, assigning ID, Version and timestamps.
func (s *MemoryStore) InsertProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.ID = s.nextID()
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = p.Clone()
	s.order = append(s.order, p.ID)
	return nil
}

// ProductByID fetches a product by id.
func (s *MemoryStore) ProductByID(_ context.Context, id string) (*model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p.Clone(), nil
}

// ListProducts returns matching products in insertion order.
func (s *MemoryStore) ListProducts(_ context.Context, q ProductQuery) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Product{}
	for _, id := range s.order {
		p, ok := s.products[id]
		if !ok || !matches(p, q) {
			continue
		}
		out = append(out, *p.Clone())
	}
	return out, nil
}

func matches(p *model.Product, q ProductQuery) bool {
	if q.SellerID != "" && p.SellerID != q.SellerID {
		return false
	}
	if q.BuyerID != "" && len(p.ReservationsOf(q.BuyerID)) == 0 {
		return false
	}
	if q.Text != "" && p.Title != q.Text && p.Description != q.Text && p.Category != q.Text {
		return false
	}
	return true
}

// SaveProduct replaces p when the stored version equals expectedVersion.
func (s *MemoryStore) SaveProduct(_ context.Context, p *model.Product, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	if cur.Version != expectedVersion {
		return ErrStale
	}
	p.Version = expectedVersion + 1
	p.SellerID = cur.SellerID
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p.Clone()
	return nil
}

// DeleteProduct removes a product.
func (s *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	for j, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:j], s.order[j+1:]...)
			break
		}
	}
	return nil
}
