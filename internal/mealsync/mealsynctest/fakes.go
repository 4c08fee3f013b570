// Package mealsynctest provides in-memory stores for exercising the meal
// workflow without a database or bucket.
package mealsynctest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rohits-web03/reciperater/internal/models"
)

// RecordStore keeps meals in memory and hands out ids m-1, m-2, ...
type RecordStore struct {
	mu     sync.Mutex
	meals  map[string]models.Meal
	order  []string
	nextID int

	// Calls lists operations in the order they were made.
	Calls   []string
	Created []models.Meal
	Updated []models.Meal

	CreateErr error
	FindErr   error
	UpdateErr error
	DeleteErr error
	ListErr   error
}

func NewRecordStore() *RecordStore {
	return &RecordStore{meals: map[string]models.Meal{}}
}

// Seed stores meal as if it had been created earlier.
func (s *RecordStore) Seed(meal models.Meal) models.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meal.ID == "" {
		meal.ID = s.allocID()
	}
	s.put(meal)
	return meal
}

// Meal returns the stored meal with id.
func (s *RecordStore) Meal(id string) (models.Meal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	return m, ok
}

func (s *RecordStore) Create(_ context.Context, meal *models.Meal) (*models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "create")
	s.Created = append(s.Created, *meal)
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	created := *meal
	created.ID = s.allocID()
	s.put(created)
	return &created, nil
}

func (s *RecordStore) FindByID(_ context.Context, id string) (*models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "find")
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	m, ok := s.meals[id]
	if !ok {
		return nil, fmt.Errorf("find meal %s: %w", id, models.ErrNotFound)
	}
	return &m, nil
}

func (s *RecordStore) Update(_ context.Context, meal *models.Meal) (*models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "update")
	s.Updated = append(s.Updated, *meal)
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	if _, ok := s.meals[meal.ID]; !ok {
		return nil, fmt.Errorf("update meal %s: %w", meal.ID, models.ErrNotFound)
	}
	s.put(*meal)
	updated := *meal
	return &updated, nil
}

func (s *RecordStore) DeleteByID(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "delete")
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}
	if _, ok := s.meals[id]; !ok {
		return 0, nil
	}
	delete(s.meals, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *RecordStore) ListOwnedBy(_ context.Context, ownerID string) ([]models.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, "list")
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []models.Meal
	for _, id := range s.order {
		if m := s.meals[id]; m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *RecordStore) allocID() string {
	s.nextID++
	return fmt.Sprintf("m-%d", s.nextID)
}

func (s *RecordStore) put(m models.Meal) {
	if _, ok := s.meals[m.ID]; !ok {
		s.order = append(s.order, m.ID)
	}
	s.meals[m.ID] = m
}

// BlobStore keeps uploads in memory under BaseURL.
type BlobStore struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string][]byte

	// Uploads and Deletes list paths in call order.
	Uploads []string
	Deletes []string

	// UploadErr, when set, is consulted before every upload.
	UploadErr func(path string) error
	DeleteErr error
}

func NewBlobStore() *BlobStore {
	return &BlobStore{
		BaseURL: "https://blobs.test/files",
		Objects: map[string][]byte{},
	}
}

func (b *BlobStore) Upload(_ context.Context, path string, data []byte, overwrite bool) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Uploads = append(b.Uploads, path)
	if b.UploadErr != nil {
		if err := b.UploadErr(path); err != nil {
			return "", err
		}
	}
	if _, exists := b.Objects[path]; exists && !overwrite {
		return "", fmt.Errorf("upload %s: already exists", path)
	}
	b.Objects[path] = data
	return b.BaseURL + "/" + path, nil
}

func (b *BlobStore) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Deletes = append(b.Deletes, path)
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.Objects, path)
	return nil
}

func (b *BlobStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, b.BaseURL+"/")
	return key, ok && key != ""
}

// Calls returns the total number of uploads and deletes made.
func (b *BlobStore) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Uploads) + len(b.Deletes)
}

// DeletedPaths returns a copy of Deletes, safe to read while cleanups run.
func (b *BlobStore) DeletedPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.Deletes...)
}

// Images tags its input instead of decoding it.
type Images struct {
	Err error
}

func (i Images) Thumbnail(image []byte) ([]byte, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	return append([]byte("thumb:"), image...), nil
}

func (i Images) FullSize(image []byte) ([]byte, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	return append([]byte("full:"), image...), nil
}
