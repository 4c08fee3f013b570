package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/reciperater/internal/api/handlers"
	"github.com/rohits-web03/reciperater/internal/config"
	"github.com/rohits-web03/reciperater/internal/logger"
	"github.com/rohits-web03/reciperater/internal/mealsync"
	"github.com/rohits-web03/reciperater/internal/mealsync/mealsynctest"
	"github.com/rohits-web03/reciperater/internal/models"
	"github.com/rohits-web03/reciperater/internal/session"
)

const secret = "router-secret"

func newTestRouter(t *testing.T) (http.Handler, *mealsynctest.RecordStore) {
	t.Helper()
	records := mealsynctest.NewRecordStore()
	blobs := mealsynctest.NewBlobStore()
	base := mealsync.New(records, blobs, mealsynctest.Images{}, "")
	t.Cleanup(base.Wait)

	log := logger.Discard()
	return SetupRouter(Deps{
		Auth: &handlers.AuthHandler{JWTSecret: secret, SessionTTL: time.Hour, Logger: log},
		Meals: &handlers.MealHandler{
			Syncer: func(owner string) *mealsync.Syncer { return base.ForOwner(owner, records) },
			Logger: log,
		},
		JWTSecret: secret,
		Cors:      config.CorsConfig(),
		Logger:    log,
	}), records
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMealRoutesNeedSession(t *testing.T) {
	router, records := newTestRouter(t)
	records.Seed(models.Meal{OwnerID: "u-1", Name: "Soup", Rating: 2})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := session.Issue(secret, "u-1", "dana", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meals/m-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Soup"`)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/meals/m-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
