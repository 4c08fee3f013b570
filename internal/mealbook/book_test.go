package mealbook

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/mealsync/mealsynctest"
	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/repositories"
)

type fakeGate struct{ active bool }

func (g *fakeGate) IsSessionActive() bool { return g.active }

type fixture struct {
	gate    *fakeGate
	archive *repositories.ArchiveStore
	records *mealsynctest.RecordStore
	blobs   *mealsynctest.BlobStore
	book    *Book
	dialed  []string
}

func newFixture(t *testing.T, active bool) *fixture {
	t.Helper()
	f := &fixture{
		gate:    &fakeGate{active: active},
		archive: repositories.NewArchiveStore(filepath.Join(t.TempDir(), "meals")),
		records: mealsynctest.NewRecordStore(),
		blobs:   mealsynctest.NewBlobStore(),
	}
	owner := func() (string, bool) { return "u-1", f.gate.active }
	f.book = New(f.gate, owner, f.archive, func(ownerID string) (Remote, error) {
		f.dialed = append(f.dialed, ownerID)
		return mealsync.New(f.records, f.blobs, mealsynctest.Images{}, ownerID), nil
	})
	return f
}

func ptr[T any](v T) *T { return &v }

func TestLocalFirstRunIsEmpty(t *testing.T) {
	f := newFixture(t, false)

	meals, err := f.book.Meals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, meals)
	assert.False(t, f.book.Remote())
	assert.Empty(t, f.dialed)
}

func TestLocalAddUpdateRemove(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)
	require.NoError(t, f.book.Add(ctx, rec))

	rec2, err := models.NewRecord("Soup", nil, 2)
	require.NoError(t, err)
	require.NoError(t, f.book.Add(ctx, rec2))

	updated, err := f.book.Update(ctx, 1, Edit{Rating: ptr(3), Photo: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
	assert.False(t, updated.ReplacePhoto)

	archived, ok := f.archive.Load()
	require.True(t, ok)
	require.Len(t, archived, 2)
	assert.Equal(t, "Soup", archived[1].Name)
	assert.Equal(t, []byte("png"), archived[1].Image)

	require.NoError(t, f.book.Remove(ctx, 0))
	archived, ok = f.archive.Load()
	require.True(t, ok)
	require.Len(t, archived, 1)
	assert.Equal(t, "Soup", archived[0].Name)

	assert.Empty(t, f.records.Calls)
	assert.Empty(t, f.dialed)
}

func TestLocalReloadFromArchive(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	n, err := f.book.AddSamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	other := New(f.gate, func() (string, bool) { return "", false }, f.archive, nil)
	meals, err := other.Meals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 3)
	assert.Equal(t, "Caprese Salad", meals[0].Name)
	assert.Equal(t, 5, meals[1].Rating)
}

func TestInvalidEditIsRejected(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.book.Add(ctx, &models.Record{Name: "Toast", Rating: 1}))

	_, err := f.book.Update(ctx, 0, Edit{Name: ptr("")})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.book.Update(ctx, 5, Edit{Name: ptr("Nope")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, f.book.Add(ctx, &models.Record{Name: "Bad", Rating: -1}), models.ErrValidation)
}

func TestRemoteRoutesThroughWorkflow(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	rec, err := models.NewRecord("Caprese Salad", []byte("jpeg"), 4)
	require.NoError(t, err)
	require.NoError(t, f.book.Add(ctx, rec))
	assert.Equal(t, "m-1", rec.ID)

	meals, err := f.book.Meals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Nil(t, meals[0].Image)

	updated, err := f.book.Update(ctx, 0, Edit{Name: ptr("Caprese"), Photo: []byte("new")})
	require.NoError(t, err)
	assert.Equal(t, "Caprese", updated.Name)
	assert.False(t, updated.ReplacePhoto)
	assert.NotEqual(t, meals[0].PhotoURL, "")

	require.NoError(t, f.book.Remove(ctx, 0))
	_, ok := f.records.Meal("m-1")
	assert.False(t, ok)

	_, ok = f.archive.Load()
	assert.False(t, ok, "remote mode never writes the archive")
	assert.NotEmpty(t, f.dialed)
	for _, owner := range f.dialed {
		assert.Equal(t, "u-1", owner)
	}

	_, err = f.book.AddSamples(ctx)
	assert.Error(t, err)
}

func TestRemoteRemoveFailureKeepsMeal(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.records.Seed(models.Meal{OwnerID: "u-1", Name: "Soup", Rating: 2})
	meals, err := f.book.Meals(ctx)
	require.NoError(t, err)
	require.Len(t, meals, 1)

	f.records.DeleteErr = errors.New("timeout")
	assert.ErrorIs(t, f.book.Remove(ctx, 0), models.ErrDeleteFailed)

	meals, err = f.book.Meals(ctx)
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func TestRemoteConnectFailure(t *testing.T) {
	gate := &fakeGate{active: true}
	book := New(gate, func() (string, bool) { return "u-1", true }, nil, func(string) (Remote, error) {
		return nil, errors.New("dsn missing")
	})

	_, err := book.Meals(context.Background())
	assert.ErrorContains(t, err, "dsn missing")
}
