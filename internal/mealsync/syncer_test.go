package mealsync_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/mealsync/mealsynctest"
	"github.com/rohits-web03/reciperater/internal/models"
)

const owner = "u-1"

type harness struct {
	records *mealsynctest.RecordStore
	blobs   *mealsynctest.BlobStore
	states  []mealsync.State
	syncer  *mealsync.Syncer
}

func newHarness(t *testing.T, blobs mealsync.BlobStore) *harness {
	t.Helper()
	h := &harness{
		records: mealsynctest.NewRecordStore(),
		blobs:   mealsynctest.NewBlobStore(),
	}
	if blobs == nil {
		blobs = h.blobs
	}
	ids := []string{"abc", "def", "ghi"}
	h.syncer = mealsync.New(h.records, blobs, mealsynctest.Images{}, owner,
		mealsync.WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
		mealsync.WithStateHook(func(s mealsync.State) { h.states = append(h.states, s) }),
	)
	t.Cleanup(h.syncer.Wait)
	return h
}

func (h *harness) seedWithPhoto(name string, rating int, uid string) models.Meal {
	photo := "photos/" + owner + "/full_" + uid + ".jpg"
	thumb := "photos/" + owner + "/thumb_" + uid + ".jpg"
	h.blobs.Objects[photo] = []byte("old full")
	h.blobs.Objects[thumb] = []byte("old thumb")
	return h.records.Seed(models.Meal{
		OwnerID:      owner,
		Name:         name,
		Rating:       rating,
		PhotoURL:     h.blobs.BaseURL + "/" + photo,
		ThumbnailURL: h.blobs.BaseURL + "/" + thumb,
	})
}

func recordOf(m models.Meal) *models.Record {
	return &models.Record{ID: m.ID, Name: m.Name, Rating: m.Rating, PhotoURL: m.PhotoURL, ThumbnailURL: m.ThumbnailURL}
}

func requireStepError(t *testing.T, err error, kind error, state mealsync.State) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var stepErr *mealsync.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, state, stepErr.State)
}

func TestCreateCapreseSalad(t *testing.T) {
	h := newHarness(t, nil)

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)

	require.NoError(t, h.syncer.SaveRecord(context.Background(), rec))

	assert.Equal(t, "m-1", rec.ID)
	assert.Equal(t, 4, rec.Rating)
	assert.Equal(t, "https://blobs.test/files/photos/u-1/full_abc.jpg", rec.PhotoURL)
	assert.Equal(t, "https://blobs.test/files/photos/u-1/thumb_abc.jpg", rec.ThumbnailURL)

	assert.Equal(t, []string{"photos/u-1/thumb_abc.jpg", "photos/u-1/full_abc.jpg"}, h.blobs.Uploads)
	assert.Equal(t, []byte("thumb:jpeg"), h.blobs.Objects["photos/u-1/thumb_abc.jpg"])
	assert.Equal(t, []byte("full:jpeg"), h.blobs.Objects["photos/u-1/full_abc.jpg"])

	require.Equal(t, []string{"create"}, h.records.Calls)
	created := h.records.Created[0]
	assert.Equal(t, owner, created.OwnerID)
	assert.Equal(t, "Caprese Salad", created.Name)
	assert.Equal(t, rec.PhotoURL, created.PhotoURL)
	assert.Equal(t, rec.ThumbnailURL, created.ThumbnailURL)

	assert.Equal(t, []mealsync.State{
		mealsync.Idle,
		mealsync.UploadingThumbnail,
		mealsync.UploadingPhoto,
		mealsync.Persisting,
		mealsync.Done,
	}, h.states)
}

func TestCreateRequiresPhoto(t *testing.T) {
	h := newHarness(t, nil)

	rec, err := models.NewRecord("Plain rice", nil, 2)
	require.NoError(t, err)

	err = h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrValidation, mealsync.Idle)
	assert.Zero(t, h.blobs.Calls())
	assert.Empty(t, h.records.Calls)
}

func TestSaveRejectsInvalidRecord(t *testing.T) {
	h := newHarness(t, nil)

	err := h.syncer.SaveRecord(context.Background(), &models.Record{Name: "", Rating: 3, Image: []byte("x")})
	requireStepError(t, err, models.ErrValidation, mealsync.Idle)

	err = h.syncer.SaveRecord(context.Background(), &models.Record{Name: "Stew", Rating: -1, Image: []byte("x")})
	requireStepError(t, err, models.ErrValidation, mealsync.Idle)

	assert.Zero(t, h.blobs.Calls())
	assert.Empty(t, h.records.Calls)
}

func TestCreatePhotoUploadFailureLeavesRecordUntouched(t *testing.T) {
	h := newHarness(t, nil)
	h.blobs.UploadErr = func(path string) error {
		if strings.Contains(path, "/full_") {
			return errors.New("bucket unavailable")
		}
		return nil
	}

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)
	before := *rec

	err = h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrUploadFailed, mealsync.UploadingPhoto)

	assert.Equal(t, before, *rec)
	assert.Empty(t, h.records.Calls)
	// The thumbnail stays behind; orphans from aborted creates are not reconciled.
	assert.Contains(t, h.blobs.Objects, "photos/u-1/thumb_abc.jpg")
	assert.Equal(t, mealsync.Failed, h.states[len(h.states)-1])
}

func TestCreateThumbnailUploadFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.blobs.UploadErr = func(string) error { return errors.New("timeout") }

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)

	err = h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrUploadFailed, mealsync.UploadingThumbnail)
	assert.Len(t, h.blobs.Uploads, 1)
	assert.Empty(t, rec.ID)
}

func TestCreateUndecodableImage(t *testing.T) {
	records := mealsynctest.NewRecordStore()
	blobs := mealsynctest.NewBlobStore()
	s := mealsync.New(records, blobs, mealsynctest.Images{Err: errors.New("bad jpeg")}, owner)

	rec, err := models.NewRecord("Mystery", []byte("???"), 1)
	require.NoError(t, err)

	err = s.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrUploadFailed, mealsync.UploadingThumbnail)
	assert.Zero(t, blobs.Calls())
}

func TestCreatePersistFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.records.CreateErr = errors.New("constraint violated")

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)

	err = h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrPersistFailed, mealsync.Persisting)
	assert.Empty(t, rec.ID)
	assert.Empty(t, rec.PhotoURL)
	assert.Empty(t, rec.ThumbnailURL)
	// Uploaded blobs are not rolled back.
	assert.Len(t, h.blobs.Objects, 2)
}

func TestUpdateWithoutReplacementNeverTouchesBlobs(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Chicken and Potatoes", 5, "old")
	blobCalls := h.blobs.Calls()

	rec := recordOf(seeded)
	rec.Name = "Chicken and Mash"
	rec.Rating = 3

	require.NoError(t, h.syncer.SaveRecord(context.Background(), rec))

	assert.Equal(t, blobCalls, h.blobs.Calls())
	assert.Equal(t, []string{"find", "update"}, h.records.Calls)

	updated := h.records.Updated[0]
	expected := seeded
	expected.Name = "Chicken and Mash"
	expected.Rating = 3
	assert.Equal(t, expected, updated)

	assert.Equal(t, []mealsync.State{
		mealsync.Idle,
		mealsync.Fetching,
		mealsync.Persisting,
		mealsync.Done,
	}, h.states)
}

func TestUpdateMissingMeal(t *testing.T) {
	h := newHarness(t, nil)

	rec := &models.Record{ID: "m-404", Name: "Ghost", Rating: 1}
	err := h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrNotFound, mealsync.Fetching)
	assert.Equal(t, []string{"find"}, h.records.Calls)
}

func TestUpdatePersistFailure(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Soup", 2, "old")
	h.records.UpdateErr = errors.New("connection reset")

	err := h.syncer.SaveRecord(context.Background(), recordOf(seeded))
	requireStepError(t, err, models.ErrPersistFailed, mealsync.Persisting)
}

func TestReplacePhoto(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Pasta with Meatballs", 3, "old")

	rec := recordOf(seeded)
	rec.Rating = 4
	rec.AttachPhoto([]byte("new jpeg"))
	require.True(t, rec.ReplacePhoto)

	require.NoError(t, h.syncer.SaveRecord(context.Background(), rec))
	h.syncer.Wait()

	assert.Equal(t, "https://blobs.test/files/photos/u-1/full_abc.jpg", rec.PhotoURL)
	assert.Equal(t, "https://blobs.test/files/photos/u-1/thumb_abc.jpg", rec.ThumbnailURL)
	assert.False(t, rec.ReplacePhoto)
	assert.Equal(t, seeded.ID, rec.ID)

	stored, ok := h.records.Meal(seeded.ID)
	require.True(t, ok)
	assert.Equal(t, rec.PhotoURL, stored.PhotoURL)
	assert.Equal(t, 4, stored.Rating)

	assert.Equal(t, []string{"find", "update"}, h.records.Calls)
	assert.Equal(t, []string{"photos/u-1/thumb_abc.jpg", "photos/u-1/full_abc.jpg"}, h.blobs.Uploads)
	assert.ElementsMatch(t, []string{"photos/u-1/full_old.jpg", "photos/u-1/thumb_old.jpg"}, h.blobs.DeletedPaths())
	assert.NotContains(t, h.blobs.Objects, "photos/u-1/full_old.jpg")
	assert.Contains(t, h.blobs.Objects, "photos/u-1/full_abc.jpg")

	assert.Equal(t, []mealsync.State{
		mealsync.Idle,
		mealsync.UploadingThumbnail,
		mealsync.UploadingPhoto,
		mealsync.Fetching,
		mealsync.Persisting,
		mealsync.CleaningUp,
		mealsync.Done,
	}, h.states)
}

// gatedBlobs holds every delete until release is closed.
type gatedBlobs struct {
	*mealsynctest.BlobStore
	release chan struct{}
}

func (g *gatedBlobs) Delete(ctx context.Context, path string) error {
	<-g.release
	return g.BlobStore.Delete(ctx, path)
}

func TestReplacePhotoReportsSuccessBeforeCleanup(t *testing.T) {
	gated := &gatedBlobs{BlobStore: mealsynctest.NewBlobStore(), release: make(chan struct{})}
	h := newHarness(t, gated)
	h.blobs = gated.BlobStore
	seeded := h.seedWithPhoto("Pasta", 3, "old")

	ctx, cancel := context.WithCancel(context.Background())
	rec := recordOf(seeded)
	rec.AttachPhoto([]byte("new"))

	require.NoError(t, h.syncer.SaveRecord(ctx, rec))
	cancel()
	assert.Empty(t, h.blobs.DeletedPaths())

	close(gated.release)
	h.syncer.Wait()
	assert.ElementsMatch(t, []string{"photos/u-1/full_old.jpg", "photos/u-1/thumb_old.jpg"}, h.blobs.DeletedPaths())
}

func TestReplacePhotoCleanupFailureIsNotReported(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Pasta", 3, "old")
	h.blobs.DeleteErr = errors.New("access denied")

	rec := recordOf(seeded)
	rec.AttachPhoto([]byte("new"))

	require.NoError(t, h.syncer.SaveRecord(context.Background(), rec))
	h.syncer.Wait()

	assert.Len(t, h.blobs.DeletedPaths(), 2)
	assert.Equal(t, "https://blobs.test/files/photos/u-1/full_abc.jpg", rec.PhotoURL)
}

func TestReplacePhotoOnDeletedMeal(t *testing.T) {
	h := newHarness(t, nil)

	rec := &models.Record{
		ID: "m-9", Name: "Gone", Rating: 2,
		PhotoURL: "https://blobs.test/files/photos/u-1/full_x.jpg", ThumbnailURL: "https://blobs.test/files/photos/u-1/thumb_x.jpg",
	}
	rec.AttachPhoto([]byte("new"))
	before := *rec

	err := h.syncer.SaveRecord(context.Background(), rec)
	requireStepError(t, err, models.ErrNotFound, mealsync.Fetching)
	h.syncer.Wait()

	assert.Equal(t, before, *rec)
	assert.Empty(t, h.blobs.DeletedPaths())
}

func TestListMeals(t *testing.T) {
	h := newHarness(t, nil)
	h.seedWithPhoto("Caprese Salad", 4, "a")
	h.records.Seed(models.Meal{OwnerID: "someone-else", Name: "Not mine", Rating: 1})
	h.seedWithPhoto("Chicken and Potatoes", 5, "b")

	records, err := h.syncer.ListMeals(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Caprese Salad", records[0].Name)
	assert.Equal(t, "Chicken and Potatoes", records[1].Name)
	for _, r := range records {
		assert.True(t, r.Persisted())
		assert.Nil(t, r.Image)
		assert.True(t, r.HasRemotePhoto())
	}

	h.records.ListErr = errors.New("db down")
	_, err = h.syncer.ListMeals(context.Background(), owner)
	assert.Error(t, err)
}

func TestFindRecord(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Soup", 2, "s")

	rec, err := h.syncer.FindRecord(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, recordOf(seeded), rec)

	_, err = h.syncer.FindRecord(context.Background(), "m-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoveRecordKeepsBlobs(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.seedWithPhoto("Soup", 2, "s")
	blobCalls := h.blobs.Calls()

	require.NoError(t, h.syncer.RemoveRecord(context.Background(), recordOf(seeded)))

	_, ok := h.records.Meal(seeded.ID)
	assert.False(t, ok)
	assert.Equal(t, blobCalls, h.blobs.Calls())
	assert.Contains(t, h.blobs.Objects, "photos/u-1/full_s.jpg")

	err := h.syncer.RemoveRecord(context.Background(), recordOf(seeded))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoveRecordFailures(t *testing.T) {
	h := newHarness(t, nil)

	err := h.syncer.RemoveRecord(context.Background(), &models.Record{Name: "Never saved"})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, h.records.Calls)

	seeded := h.seedWithPhoto("Soup", 2, "s")
	h.records.DeleteErr = errors.New("timeout")
	err = h.syncer.RemoveRecord(context.Background(), recordOf(seeded))
	assert.ErrorIs(t, err, models.ErrDeleteFailed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uploading_thumbnail", mealsync.UploadingThumbnail.String())
	assert.Equal(t, "cleaning_up", mealsync.CleaningUp.String())
	assert.Equal(t, "state(42)", mealsync.State(42).String())
}

func TestForOwnerSharesCleanups(t *testing.T) {
	gated := &gatedBlobs{BlobStore: mealsynctest.NewBlobStore(), release: make(chan struct{})}
	h := newHarness(t, gated)
	h.blobs = gated.BlobStore

	other := mealsynctest.NewRecordStore()
	derived := h.syncer.ForOwner("u-2", other)
	seeded := other.Seed(models.Meal{
		OwnerID:      "u-2",
		Name:         "Stew",
		Rating:       5,
		PhotoURL:     h.blobs.BaseURL + "/photos/u-2/full_old.jpg",
		ThumbnailURL: h.blobs.BaseURL + "/photos/u-2/thumb_old.jpg",
	})

	rec := recordOf(seeded)
	rec.AttachPhoto([]byte("new"))
	require.NoError(t, derived.SaveRecord(context.Background(), rec))

	assert.Equal(t, "https://blobs.test/files/photos/u-2/full_abc.jpg", rec.PhotoURL)
	assert.Empty(t, h.records.Calls)
	assert.Equal(t, []string{"find", "update"}, other.Calls)

	close(gated.release)
	h.syncer.Wait()
	assert.ElementsMatch(t, []string{"photos/u-2/full_old.jpg", "photos/u-2/thumb_old.jpg"}, h.blobs.DeletedPaths())
}
