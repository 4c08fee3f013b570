// Package mealsync saves meals to the remote record and blob stores.
//
// A save is one of three branches, picked from the record alone:
//
//   - create: the record has no id. Thumbnail and photo are uploaded, then
//     the meal is created.
//   - replace photo: the record has an id and a new local image. The new
//     photo is uploaded, the meal updated, and the old blobs are removed in
//     the background after the caller has been told the save succeeded.
//   - update: the record has an id and no new image. Only name and rating
//     are written; the blob store is never touched.
//
// Each step runs only after the previous one returned. Failures before the
// meal write abort the save and leave the record untouched.
package mealsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rohits-web03/reciperater/internal/logger"
	"github.com/rohits-web03/reciperater/internal/models"
)

// RecordStore is the remote store of meal entities.
type RecordStore interface {
	Create(ctx context.Context, meal *models.Meal) (*models.Meal, error)
	FindByID(ctx context.Context, id string) (*models.Meal, error)
	Update(ctx context.Context, meal *models.Meal) (*models.Meal, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	ListOwnedBy(ctx context.Context, ownerID string) ([]models.Meal, error)
}

// BlobStore is the remote store of photo files.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, overwrite bool) (string, error)
	Delete(ctx context.Context, path string) error
	KeyFromURL(url string) (string, bool)
}

// ImageEncoder renders the two uploads made for every photo.
type ImageEncoder interface {
	Thumbnail(image []byte) ([]byte, error)
	FullSize(image []byte) ([]byte, error)
}

const defaultCleanupTimeout = 30 * time.Second

type Syncer struct {
	records RecordStore
	blobs   BlobStore
	images  ImageEncoder
	ownerID string

	logger         *slog.Logger
	newID          func() string
	cleanupTimeout time.Duration
	onState        func(State)

	// cleanups is shared by every Syncer derived through ForOwner.
	cleanups *sync.WaitGroup
}

type Option func(*Syncer)

func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// WithIDGenerator replaces the uuid used to name uploaded blobs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Syncer) { s.newID = fn }
}

func WithCleanupTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.cleanupTimeout = d
		}
	}
}

// WithStateHook is called on every state a save enters.
func WithStateHook(fn func(State)) Option {
	return func(s *Syncer) { s.onState = fn }
}

// New returns a Syncer acting for ownerID.
func New(records RecordStore, blobs BlobStore, images ImageEncoder, ownerID string, opts ...Option) *Syncer {
	s := &Syncer{
		records:        records,
		blobs:          blobs,
		images:         images,
		ownerID:        ownerID,
		logger:         logger.Discard(),
		newID:          uuid.NewString,
		cleanupTimeout: defaultCleanupTimeout,
		onState:        func(State) {},
		cleanups:       &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForOwner returns a Syncer acting for ownerID against records. It shares
// settings and pending cleanups with s.
func (s *Syncer) ForOwner(ownerID string, records RecordStore) *Syncer {
	derived := *s
	derived.ownerID = ownerID
	derived.records = records
	return &derived
}

// Wait blocks until every scheduled photo cleanup has finished.
func (s *Syncer) Wait() {
	s.cleanups.Wait()
}

// FindRecord loads one meal as the edit screen sees it.
func (s *Syncer) FindRecord(ctx context.Context, id string) (*models.Record, error) {
	meal, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, &StepError{State: Fetching, Kind: fetchKind(err), Err: err}
	}
	return toRecord(meal), nil
}

// ListMeals returns every meal of ownerID. Records never carry an image.
func (s *Syncer) ListMeals(ctx context.Context, ownerID string) ([]*models.Record, error) {
	meals, err := s.records.ListOwnedBy(ctx, ownerID)
	if err != nil {
		return nil, &StepError{State: Fetching, Kind: models.ErrPersistFailed, Err: err}
	}
	s.logger.Debug("meals loaded", "owner", ownerID, "count", len(meals))

	records := make([]*models.Record, 0, len(meals))
	for i := range meals {
		records = append(records, toRecord(&meals[i]))
	}
	return records, nil
}

// RemoveRecord deletes the meal only. Its photo blobs stay in the blob store.
func (s *Syncer) RemoveRecord(ctx context.Context, rec *models.Record) (err error) {
	defer func() { removalsTotal.WithLabelValues(outcome(err)).Inc() }()

	if !rec.Persisted() {
		return &StepError{State: Persisting, Kind: models.ErrNotFound}
	}

	n, err := s.records.DeleteByID(ctx, rec.ID)
	if err != nil {
		s.logger.Error("failed to remove meal", "meal_id", rec.ID, "error", err)
		return &StepError{State: Persisting, Kind: models.ErrDeleteFailed, Err: err}
	}
	if n == 0 {
		return &StepError{State: Persisting, Kind: models.ErrNotFound}
	}

	s.logger.Info("meal removed", "meal_id", rec.ID)
	return nil
}

func toRecord(m *models.Meal) *models.Record {
	return &models.Record{
		ID:           m.ID,
		Name:         m.Name,
		Rating:       m.Rating,
		PhotoURL:     m.PhotoURL,
		ThumbnailURL: m.ThumbnailURL,
	}
}

func fetchKind(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	return models.ErrPersistFailed
}
