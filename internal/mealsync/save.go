package mealsync

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/repositories"
)

type branch string

const (
	branchCreate  branch = "create"
	branchReplace branch = "replace_photo"
	branchUpdate  branch = "update"
)

func branchFor(rec *models.Record) branch {
	switch {
	case !rec.Persisted():
		return branchCreate
	case rec.ReplacePhoto:
		return branchReplace
	default:
		return branchUpdate
	}
}

// run tracks one save as it moves through its states.
type run struct {
	s      *Syncer
	branch branch
	state  State
}

func (r *run) enter(st State) {
	r.state = st
	r.s.onState(st)
}

func (r *run) fail(kind, err error) error {
	failed := r.state
	r.enter(Failed)
	return &StepError{State: failed, Kind: kind, Err: err}
}

// SaveRecord persists rec and, on success, writes the server-assigned id
// and photo URLs back onto it. On failure rec is left as it was.
func (s *Syncer) SaveRecord(ctx context.Context, rec *models.Record) (err error) {
	r := &run{s: s, branch: branchFor(rec)}
	start := time.Now()
	r.enter(Idle)

	defer func() {
		savesTotal.WithLabelValues(string(r.branch), outcome(err)).Inc()
		saveDuration.WithLabelValues(string(r.branch)).Observe(time.Since(start).Seconds())
		if err != nil {
			s.logger.Error("failed to save meal", "branch", r.branch, "meal_id", rec.ID, "error", err)
		}
	}()

	if err := rec.Validate(); err != nil {
		return r.fail(models.ErrValidation, err)
	}

	switch r.branch {
	case branchCreate:
		return s.create(ctx, r, rec)
	case branchReplace:
		return s.replacePhoto(ctx, r, rec)
	default:
		return s.update(ctx, r, rec)
	}
}

func (s *Syncer) create(ctx context.Context, r *run, rec *models.Record) error {
	if len(rec.Image) == 0 {
		return r.fail(models.ErrValidation, &models.ValidationError{Field: "photo", Reason: "required for a new meal"})
	}

	photoURL, thumbURL, err := s.uploadPhoto(ctx, r, rec.Image)
	if err != nil {
		return err
	}

	r.enter(Persisting)
	created, err := s.records.Create(ctx, &models.Meal{
		OwnerID:      s.ownerID,
		Name:         rec.Name,
		Rating:       rec.Rating,
		PhotoURL:     photoURL,
		ThumbnailURL: thumbURL,
	})
	if err != nil {
		return r.fail(models.ErrPersistFailed, err)
	}

	rec.ID = created.ID
	rec.PhotoURL = created.PhotoURL
	rec.ThumbnailURL = created.ThumbnailURL
	r.enter(Done)

	s.logger.Info("meal created", "meal_id", rec.ID, "name", rec.Name, "rating", rec.Rating)
	return nil
}

func (s *Syncer) replacePhoto(ctx context.Context, r *run, rec *models.Record) error {
	photoURL, thumbURL, err := s.uploadPhoto(ctx, r, rec.Image)
	if err != nil {
		return err
	}

	r.enter(Fetching)
	meal, err := s.records.FindByID(ctx, rec.ID)
	if err != nil {
		return r.fail(fetchKind(err), err)
	}

	oldPhotoURL, oldThumbURL := meal.PhotoURL, meal.ThumbnailURL

	meal.Name = rec.Name
	meal.Rating = rec.Rating
	meal.PhotoURL = photoURL
	meal.ThumbnailURL = thumbURL

	r.enter(Persisting)
	updated, err := s.records.Update(ctx, meal)
	if err != nil {
		return r.fail(fetchKind(err), err)
	}

	rec.PhotoURL = updated.PhotoURL
	rec.ThumbnailURL = updated.ThumbnailURL
	rec.ReplacePhoto = false

	r.enter(CleaningUp)
	s.scheduleCleanup(ctx, rec.ID, oldPhotoURL, oldThumbURL)
	r.enter(Done)

	s.logger.Info("meal updated with new photo", "meal_id", rec.ID, "name", rec.Name, "rating", rec.Rating)
	return nil
}

func (s *Syncer) update(ctx context.Context, r *run, rec *models.Record) error {
	r.enter(Fetching)
	meal, err := s.records.FindByID(ctx, rec.ID)
	if err != nil {
		return r.fail(fetchKind(err), err)
	}

	meal.Name = rec.Name
	meal.Rating = rec.Rating

	r.enter(Persisting)
	if _, err := s.records.Update(ctx, meal); err != nil {
		return r.fail(fetchKind(err), err)
	}
	r.enter(Done)

	s.logger.Info("meal updated", "meal_id", rec.ID, "name", rec.Name, "rating", rec.Rating)
	return nil
}

// uploadPhoto uploads the thumbnail, then the full photo, under one fresh id.
// A thumbnail left behind by a failed photo upload is not removed.
func (s *Syncer) uploadPhoto(ctx context.Context, r *run, image []byte) (photoURL, thumbURL string, err error) {
	r.enter(UploadingThumbnail)

	thumb, err := s.images.Thumbnail(image)
	if err != nil {
		return "", "", r.fail(models.ErrUploadFailed, err)
	}
	full, err := s.images.FullSize(image)
	if err != nil {
		return "", "", r.fail(models.ErrUploadFailed, err)
	}

	uid := s.newID()

	thumbURL, err = s.blobs.Upload(ctx, repositories.PhotoPath(s.ownerID, repositories.PhotoThumb, uid), thumb, true)
	if err != nil {
		return "", "", r.fail(models.ErrUploadFailed, err)
	}
	s.logger.Debug("thumbnail uploaded", "url", thumbURL)

	r.enter(UploadingPhoto)
	photoURL, err = s.blobs.Upload(ctx, repositories.PhotoPath(s.ownerID, repositories.PhotoFull, uid), full, true)
	if err != nil {
		return "", "", r.fail(models.ErrUploadFailed, err)
	}
	s.logger.Debug("photo uploaded", "url", photoURL)

	return photoURL, thumbURL, nil
}

// scheduleCleanup removes replaced blobs in the background. It outlives the
// caller's context and only ever logs failures.
func (s *Syncer) scheduleCleanup(ctx context.Context, mealID string, urls ...string) {
	var paths []string
	for _, u := range urls {
		if u == "" {
			continue
		}
		path, ok := s.blobs.KeyFromURL(u)
		if !ok {
			cleanupFailuresTotal.Inc()
			s.logger.Warn("cannot derive blob path of old photo", "meal_id", mealID, "url", u)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return
	}

	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
		defer cancel()

		var g errgroup.Group
		for _, path := range paths {
			g.Go(func() error {
				if err := s.blobs.Delete(cctx, path); err != nil {
					cleanupFailuresTotal.Inc()
					s.logger.Warn("failed to remove old photo", "meal_id", mealID, "path", path, "error", err)
					return err
				}
				return nil
			})
		}
		if g.Wait() == nil {
			s.logger.Debug("old photos removed", "meal_id", mealID, "paths", paths)
		}
	}()
}
