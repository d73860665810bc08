package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vetchart/pkg/logging"
)

type stubFarms struct {
	farms []string
	err   error
}

func (s stubFarms) Farms(ctx context.Context) ([]string, error) {
	return s.farms, s.err
}

func newTestHandler(t *testing.T, farms FarmLister) (*Handler, *memoryStore) {
	t.Helper()
	store := &memoryStore{initial: Preferences{CustomFarms: []string{"Aoba"}}}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)
	return NewHandler(svc, farms, logging.Discard()), store
}

func TestUpdatePreferencesPartial(t *testing.T) {
	h, store := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(`{"selected_doctor":"Dr. Sato"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Preferences
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Dr. Sato", got.SelectedDoctor)
	assert.Equal(t, []string{"Aoba"}, got.CustomFarms)
	assert.Len(t, store.saved, 1)

	rec = httptest.NewRecorder()
	h.GetPreferences(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))
	assert.Contains(t, rec.Body.String(), `"selected_doctor":"Dr. Sato"`)
}

func TestUpdatePreferencesBadBody(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListFarmsMergesAnimalFarms(t *testing.T) {
	h, _ := newTestHandler(t, stubFarms{farms: []string{"Sunrise", "Aoba"}})

	rec := httptest.NewRecorder()
	h.ListFarms(rec, httptest.NewRequest(http.MethodGet, "/api/farms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var farms []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &farms))
	assert.Equal(t, []string{"Aoba", "Sunrise"}, farms)
}

func TestListFarmsRepositoryError(t *testing.T) {
	h, _ := newTestHandler(t, stubFarms{err: errors.New("db down")})
	rec := httptest.NewRecorder()
	h.ListFarms(rec, httptest.NewRequest(http.MethodGet, "/api/farms", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAddFarm(t *testing.T) {
	h, store := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.AddFarm(rec, httptest.NewRequest(http.MethodPost, "/api/farms", strings.NewReader(`{"name":"Kita"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.saved, 1)
	assert.Equal(t, []string{"Aoba", "Kita"}, store.saved[0].CustomFarms)

	rec = httptest.NewRecorder()
	h.AddFarm(rec, httptest.NewRequest(http.MethodPost, "/api/farms", strings.NewReader(`{"name":" "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveFarm(t *testing.T) {
	store := &memoryStore{initial: Preferences{CustomFarms: []string{"Aoba", "Hill Farm"}}}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)
	h := NewHandler(svc, nil, logging.Discard())
	r := chi.NewRouter()
	r.Delete("/api/farms/{name}", h.RemoveFarm)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/farms/Hill%20Farm", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got Preferences
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Aoba"}, got.CustomFarms)
	require.Len(t, store.saved, 1)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/farms/Unknown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.saved, 1)
}

func TestRemoveFarmSaveFails(t *testing.T) {
	store := &memoryStore{initial: Preferences{CustomFarms: []string{"Aoba"}}, saveErr: errors.New("disk full")}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Delete("/api/farms/{name}", NewHandler(svc, nil, logging.Discard()).RemoveFarm)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/farms/Aoba", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"Aoba"}, svc.Get().CustomFarms)
}
