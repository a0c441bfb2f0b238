package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/queue"
	"github.com/iliyamo/ekharid/internal/repository"
	"github.com/iliyamo/ekharid/internal/storage"
)

// fakeUploader keeps files in a map and fails the upload whose body reads
// "fail".
type fakeUploader struct {
	mu    sync.Mutex
	seq   int
	files map[string]bool
}

func newFakeUploader() *fakeUploader { return &fakeUploader{files: map[string]bool{}} }

func (f *fakeUploader) Save(_ context.Context, u storage.Upload) (string, error) {
	b, _ := io.ReadAll(u.Body)
	if string(b) == "fail" {
		return "", storage.ErrUnsupportedImage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	url := fmt.Sprintf("/uploads/%d.png", f.seq)
	f.files[url] = true
	return url, nil
}

func (f *fakeUploader) Remove(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, url)
	return nil
}

func (f *fakeUploader) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

type fakePublisher struct {
	events []queue.OrderPlacedEvent
	err    error
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, ev queue.OrderPlacedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

// staleStore reports ErrStale for the first n saves.
type staleStore struct {
	*repository.MemoryStore
	n     int
	saves int
}

func (s *staleStore) SaveProduct(ctx context.Context, p *model.Product, v int64) error {
	s.saves++
	if s.saves <= s.n {
		return repository.ErrStale
	}
	return s.MemoryStore.SaveProduct(ctx, p, v)
}

func upload(name, body string) storage.Upload {
	return storage.Upload{Filename: name, Body: strings.NewReader(body)}
}

func seedProduct(t *testing.T, store repository.ProductStore, sellerID string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{SellerID: sellerID, Title: "Lamp", Description: "desk lamp", Category: "home", Price: 12.5, Stock: stock}
	require.NoError(t, store.InsertProduct(context.Background(), p))
	return p
}

func TestMutateProductRetriesStaleWrites(t *testing.T) {
	ctx := context.Background()
	store := &staleStore{MemoryStore: repository.NewMemoryStore(), n: casAttempts - 1}
	p := seedProduct(t, store, "s", 3)

	calls := 0
	got, err := mutateProduct(ctx, store, p.ID, func(p *model.Product) error {
		calls++
		return p.IncreaseCart("b", time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, casAttempts, calls)
	assert.Equal(t, 2, got.Stock)
}

func TestMutateProductGivesUpWithConflict(t *testing.T) {
	ctx := context.Background()
	store := &staleStore{MemoryStore: repository.NewMemoryStore(), n: casAttempts}
	p := seedProduct(t, store, "s", 3)

	_, err := mutateProduct(ctx, store, p.ID, func(p *model.Product) error {
		return p.IncreaseCart("b", time.Now())
	})
	assert.ErrorIs(t, err, model.ErrConflict)

	stored, err := store.ProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)
}

func TestMutateProductStopsOnTransitionError(t *testing.T) {
	ctx := context.Background()
	store := &staleStore{MemoryStore: repository.NewMemoryStore()}
	p := seedProduct(t, store, "s", 0)

	_, err := mutateProduct(ctx, store, p.ID, func(p *model.Product) error {
		return p.IncreaseCart("b", time.Now())
	})
	assert.ErrorIs(t, err, model.ErrOutOfStock)
	assert.Equal(t, 0, store.saves)

	_, err = mutateProduct(ctx, store, "missing", func(*model.Product) error { return errors.New("unreachable") })
	assert.ErrorIs(t, err, model.ErrNotFound)
}
