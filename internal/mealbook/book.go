// Package mealbook is the caller side of the app: it holds the meal list
// and decides, through the session gate, whether meals live in the remote
// stores or in the local archive.
package mealbook

import (
	"context"
	"fmt"

	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/session"
)

// Archive is the local single-file store.
type Archive interface {
	Save(records []*models.Record) error
	Load() ([]*models.Record, bool)
}

// Remote is the part of the workflow the book needs.
type Remote interface {
	SaveRecord(ctx context.Context, rec *models.Record) error
	ListMeals(ctx context.Context, ownerID string) ([]*models.Record, error)
	RemoveRecord(ctx context.Context, rec *models.Record) error
}

// RemoteFactory connects to the remote stores for ownerID. It is only
// called while a session is active.
type RemoteFactory func(ownerID string) (Remote, error)

// Edit describes changes to a meal. Nil fields are left alone.
type Edit struct {
	Name   *string
	Rating *int
	Photo  []byte
}

type Book struct {
	gate    session.Gate
	owner   func() (string, bool)
	archive Archive
	remote  RemoteFactory

	meals []*models.Record
}

// New builds a book. owner reports the user of the active session.
func New(gate session.Gate, owner func() (string, bool), archive Archive, remote RemoteFactory) *Book {
	return &Book{gate: gate, owner: owner, archive: archive, remote: remote}
}

// Remote reports whether the book is working against the remote stores.
func (b *Book) Remote() bool {
	return b.gate.IsSessionActive()
}

// Meals loads the list from the remote stores or, without a session, from
// the archive. A missing archive is a first run and yields no meals.
func (b *Book) Meals(ctx context.Context) ([]*models.Record, error) {
	if b.Remote() {
		remote, owner, err := b.connect()
		if err != nil {
			return nil, err
		}
		meals, err := remote.ListMeals(ctx, owner)
		if err != nil {
			return nil, err
		}
		b.meals = meals
		return b.meals, nil
	}

	meals, ok := b.archive.Load()
	if !ok {
		meals = nil
	}
	b.meals = meals
	return b.meals, nil
}

// Add appends a new meal.
func (b *Book) Add(ctx context.Context, rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if b.Remote() {
		remote, _, err := b.connect()
		if err != nil {
			return err
		}
		if err := remote.SaveRecord(ctx, rec); err != nil {
			return err
		}
		b.meals = append(b.meals, rec)
		return nil
	}

	b.meals = append(b.meals, rec)
	return b.archive.Save(b.meals)
}

// Update applies edit to the meal at index, as listed by the last Meals call.
func (b *Book) Update(ctx context.Context, index int, edit Edit) (*models.Record, error) {
	current, err := b.at(index)
	if err != nil {
		return nil, err
	}

	rec := *current
	if edit.Name != nil {
		rec.Name = *edit.Name
	}
	if edit.Rating != nil {
		rec.Rating = *edit.Rating
	}
	if len(edit.Photo) > 0 {
		rec.AttachPhoto(edit.Photo)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if b.Remote() {
		remote, _, err := b.connect()
		if err != nil {
			return nil, err
		}
		if err := remote.SaveRecord(ctx, &rec); err != nil {
			return nil, err
		}
		b.meals[index] = &rec
		return &rec, nil
	}

	b.meals[index] = &rec
	if err := b.archive.Save(b.meals); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Remove deletes the meal at index. The list only changes once the store
// confirmed the removal.
func (b *Book) Remove(ctx context.Context, index int) error {
	rec, err := b.at(index)
	if err != nil {
		return err
	}

	if b.Remote() {
		remote, _, err := b.connect()
		if err != nil {
			return err
		}
		if err := remote.RemoveRecord(ctx, rec); err != nil {
			return err
		}
		b.meals = append(b.meals[:index], b.meals[index+1:]...)
		return nil
	}

	b.meals = append(b.meals[:index], b.meals[index+1:]...)
	return b.archive.Save(b.meals)
}

func (b *Book) at(index int) (*models.Record, error) {
	if index < 0 || index >= len(b.meals) {
		return nil, fmt.Errorf("no meal at position %d: %w", index+1, models.ErrNotFound)
	}
	return b.meals[index], nil
}

func (b *Book) connect() (Remote, string, error) {
	owner, ok := b.owner()
	if !ok {
		return nil, "", fmt.Errorf("session has no owner")
	}
	remote, err := b.remote(owner)
	if err != nil {
		return nil, "", fmt.Errorf("connect remote stores: %w", err)
	}
	return remote, owner, nil
}

// SampleMeals are the meals offered to seed an empty local archive.
func SampleMeals() []*models.Record {
	return []*models.Record{
		{Name: "Caprese Salad", Rating: 4},
		{Name: "Chicken and Potatoes", Rating: 5},
		{Name: "Pasta with Meatballs", Rating: 3},
	}
}

// AddSamples seeds the local archive with SampleMeals. Remote meals need a
// photo each, so samples are local only.
func (b *Book) AddSamples(ctx context.Context) (int, error) {
	if b.Remote() {
		return 0, fmt.Errorf("sample meals are only available without a session")
	}
	if _, err := b.Meals(ctx); err != nil {
		return 0, err
	}
	samples := SampleMeals()
	b.meals = append(b.meals, samples...)
	if err := b.archive.Save(b.meals); err != nil {
		return 0, err
	}
	return len(samples), nil
}

var _ Remote = (*mealsync.Syncer)(nil)
