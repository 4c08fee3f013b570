package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rohits-web03/reciperater/internal/models"
	"gorm.io/gorm"
)

// MealStore is the remote record store. A store obtained from ForOwner
// only ever sees that owner's meals.
type MealStore struct {
	db      *gorm.DB
	ownerID string
}

func NewMealStore(db *gorm.DB) *MealStore {
	return &MealStore{db: db}
}

// ForOwner returns a copy of the store scoped to ownerID.
func (s *MealStore) ForOwner(ownerID string) *MealStore {
	return &MealStore{db: s.db, ownerID: ownerID}
}

func (s *MealStore) scoped(ctx context.Context) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Meal{})
	if s.ownerID != "" {
		tx = tx.Where("owner_id = ?", s.ownerID)
	}
	return tx
}

func (s *MealStore) Create(ctx context.Context, meal *models.Meal) (*models.Meal, error) {
	created := *meal
	created.ID = ""
	if s.ownerID != "" {
		created.OwnerID = s.ownerID
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}
	return &created, nil
}

func (s *MealStore) FindByID(ctx context.Context, id string) (*models.Meal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find meal %q: %w", id, models.ErrNotFound)
	}

	var meal models.Meal
	err := s.scoped(ctx).Where("id = ?", id).First(&meal).Error
	switch {
	case err == nil:
		return &meal, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find meal %s: %w", id, models.ErrNotFound)
	default:
		return nil, fmt.Errorf("find meal %s: %w", id, err)
	}
}

// Update writes name, rating and both photo URLs of an existing meal.
func (s *MealStore) Update(ctx context.Context, meal *models.Meal) (*models.Meal, error) {
	if _, err := uuid.Parse(meal.ID); err != nil {
		return nil, fmt.Errorf("update meal %q: %w", meal.ID, models.ErrNotFound)
	}

	res := s.scoped(ctx).Where("id = ?", meal.ID).Updates(map[string]any{
		"name":          meal.Name,
		"rating":        meal.Rating,
		"photo_url":     meal.PhotoURL,
		"thumbnail_url": meal.ThumbnailURL,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("update meal %s: %w", meal.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("update meal %s: %w", meal.ID, models.ErrNotFound)
	}
	return s.FindByID(ctx, meal.ID)
}

// DeleteByID returns how many meals were removed: 0 or 1.
func (s *MealStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}
	res := s.scoped(ctx).Where("id = ?", id).Delete(&models.Meal{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete meal %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *MealStore) ListOwnedBy(ctx context.Context, ownerID string) ([]models.Meal, error) {
	var meals []models.Meal
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("list meals of %s: %w", ownerID, err)
	}
	return meals, nil
}
