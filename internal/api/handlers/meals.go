package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rohits-web03/reciperater/internal/api/middleware"
	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/utils"
)

const maxPhotoSize = 20 << 20 // 20 MB

// PhotoLinker turns a stored photo URL into a temporary download link.
type PhotoLinker interface {
	KeyFromURL(url string) (string, bool)
	PresignGet(ctx context.Context, path string, expires time.Duration) (string, error)
}

type MealHandler struct {
	// Syncer returns the workflow acting for one owner.
	Syncer func(ownerID string) *mealsync.Syncer
	Photos PhotoLinker
	Logger *slog.Logger
}

type mealResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	PhotoURL     string `json:"photoUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func toResponse(r *models.Record) mealResponse {
	return mealResponse{
		ID:           r.ID,
		Name:         r.Name,
		Rating:       r.Rating,
		PhotoURL:     r.PhotoURL,
		ThumbnailURL: r.ThumbnailURL,
	}
}

// GET /api/v1/meals
// ListMeals godoc
// @Summary List the caller's meals
// @Tags Meals
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/meals [get]
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	records, err := h.Syncer(owner).ListMeals(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	meals := make([]mealResponse, 0, len(records))
	for _, rec := range records {
		meals = append(meals, toResponse(rec))
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Meals retrieved successfully",
		Data:    meals,
	})
}

// POST /api/v1/meals
// CreateMeal godoc
// @Summary Create a meal with its photo
// @Tags Meals
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Meal name"
// @Param rating formData int true "Rating"
// @Param photo formData file true "Photo"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 502 {object} utils.Payload
// @Router /api/v1/meals [post]
func (h *MealHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	form, err := parseMealForm(w, r)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form.name == nil || form.rating == nil {
		utils.JSONError(w, http.StatusBadRequest, "name and rating are required")
		return
	}

	rec, err := models.NewRecord(*form.name, form.photo, *form.rating)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.Syncer(owner).SaveRecord(r.Context(), rec); err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Meal created successfully",
		Data:    toResponse(rec),
	})
}

// GET /api/v1/meals/{id}
func (h *MealHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rec, err := h.Syncer(owner).FindRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Meal retrieved successfully",
		Data:    toResponse(rec),
	})
}

// PUT /api/v1/meals/{id}
// UpdateMeal godoc
// @Summary Update a meal, optionally replacing its photo
// @Tags Meals
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Meal id"
// @Param name formData string false "Meal name"
// @Param rating formData int false "Rating"
// @Param photo formData file false "New photo"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/meals/{id} [put]
func (h *MealHandler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	form, err := parseMealForm(w, r)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	syncer := h.Syncer(owner)
	rec, err := syncer.FindRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if form.name != nil {
		rec.Name = *form.name
	}
	if form.rating != nil {
		rec.Rating = *form.rating
	}
	if len(form.photo) > 0 {
		rec.AttachPhoto(form.photo)
	}

	if err := syncer.SaveRecord(r.Context(), rec); err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Meal updated successfully",
		Data:    toResponse(rec),
	})
}

// DELETE /api/v1/meals/{id}
// DeleteMeal godoc
// @Summary Delete a meal. Its photos are kept.
// @Tags Meals
// @Produce json
// @Param id path string true "Meal id"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/meals/{id} [delete]
func (h *MealHandler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rec := &models.Record{ID: r.PathValue("id")}
	if err := h.Syncer(owner).RemoveRecord(r.Context(), rec); err != nil {
		h.writeError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Meal deleted successfully",
	})
}

// GET /api/v1/meals/{id}/photo?size=thumb
// MealPhoto godoc
// @Summary Redirect to a temporary download URL of the meal photo
// @Tags Meals
// @Param id path string true "Meal id"
// @Param size query string false "full (default) or thumb"
// @Success 307
// @Failure 404 {object} utils.Payload
// @Router /api/v1/meals/{id}/photo [get]
func (h *MealHandler) MealPhoto(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.UserID(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rec, err := h.Syncer(owner).FindRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	photoURL := rec.PhotoURL
	if r.URL.Query().Get("size") == "thumb" {
		photoURL = rec.ThumbnailURL
	}
	key, ok := h.Photos.KeyFromURL(photoURL)
	if !ok {
		utils.JSONError(w, http.StatusNotFound, "Meal has no photo")
		return
	}

	url, err := h.Photos.PresignGet(r.Context(), key, 15*time.Minute)
	if err != nil {
		h.Logger.Error("failed to presign photo", "meal_id", rec.ID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

type mealForm struct {
	name   *string
	rating *int
	photo  []byte
}

func parseMealForm(w http.ResponseWriter, r *http.Request) (*mealForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1<<20)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return nil, fmt.Errorf("invalid meal form")
	}

	form := &mealForm{}
	if values, ok := r.MultipartForm.Value["name"]; ok && len(values) > 0 {
		form.name = &values[0]
	}
	if values, ok := r.MultipartForm.Value["rating"]; ok && len(values) > 0 {
		rating, err := strconv.Atoi(values[0])
		if err != nil {
			return nil, fmt.Errorf("rating must be a whole number")
		}
		form.rating = &rating
	}

	file, _, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		return nil, fmt.Errorf("invalid photo")
	default:
		defer file.Close()
		form.photo, err = io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("invalid photo")
		}
	}
	return form, nil
}

func (h *MealHandler) writeError(w http.ResponseWriter, err error) {
	status, message := http.StatusInternalServerError, "Failed to save meal"
	switch {
	case errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, "Meal not found"
	case errors.Is(err, models.ErrUploadFailed):
		status, message = http.StatusBadGateway, "Photo upload failed"
	case errors.Is(err, models.ErrDeleteFailed):
		message = "Failed to delete meal"
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("meal request failed", "error", err)
	}

	utils.JSONError(w, status, message)
}
