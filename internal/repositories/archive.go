package repositories

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rohits-web03/reciperater/internal/models"
)

// archivedMeal is what the local archive keeps of a record. Remote fields
// are deliberately absent: the archive is only used without a session.
type archivedMeal struct {
	Name   string
	Rating int
	Photo  []byte
}

// ArchiveStore keeps the whole meal list in a single file on disk.
type ArchiveStore struct {
	Path string
}

func NewArchiveStore(path string) *ArchiveStore {
	return &ArchiveStore{Path: path}
}

// Save overwrites the archive with records.
func (a *ArchiveStore) Save(records []*models.Record) error {
	meals := make([]archivedMeal, 0, len(records))
	for _, r := range records {
		meals = append(meals, archivedMeal{Name: r.Name, Rating: r.Rating, Photo: r.Image})
	}

	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".meals-*")
	if err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(meals); err != nil {
		tmp.Close()
		return fmt.Errorf("save archive: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.Path); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return nil
}

// Load returns the archived records. ok is false when there is no usable
// archive, which callers treat as a first run.
func (a *ArchiveStore) Load() (records []*models.Record, ok bool) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var meals []archivedMeal
	if err := gob.NewDecoder(f).Decode(&meals); err != nil {
		return nil, false
	}

	records = make([]*models.Record, 0, len(meals))
	for _, m := range meals {
		rec, err := models.NewRecord(m.Name, m.Photo, m.Rating)
		if err != nil {
			return nil, false
		}
		records = append(records, rec)
	}
	return records, true
}
