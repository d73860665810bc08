package animals

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vetchart/pkg/logging"
)

type fakeUploader struct {
	names []string
	body  string
}

func (f *fakeUploader) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.names = append(f.names, name)
	f.body = string(data)
	return "/uploads/thumb.jpg", nil
}

func TestCreateAnimalJSON(t *testing.T) {
	repo := NewInMemoryRepository()
	h := NewHandler(repo, nil, logging.Discard())
	changed := 0
	h.OnChange(func(context.Context) { changed++ })

	body := `{"microchip_number":"392000010","name":"Maple","owner":"Hill Farm","age":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/animals", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CreateAnimal(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Hill Farm", got.FarmID)
	assert.Equal(t, 1, changed)

	rec = httptest.NewRecorder()
	h.CreateAnimal(rec, httptest.NewRequest(http.MethodPost, "/api/animals", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, changed)
}

func TestCreateAnimalMultipartWithThumbnail(t *testing.T) {
	repo := NewInMemoryRepository()
	up := &fakeUploader{}
	h := NewHandler(repo, up, logging.Discard())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("microchip_number", "392000011"))
	require.NoError(t, mw.WriteField("name", "Pepper"))
	require.NoError(t, mw.WriteField("age", "5"))
	fw, err := mw.CreateFormFile("file", "pepper.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpegbytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/animals", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.CreateAnimal(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "/uploads/thumb.jpg", got.ThumbnailURL)
	require.NotNil(t, got.Age)
	assert.Equal(t, 5, *got.Age)
	assert.Equal(t, []string{"animal_392000011_pepper.jpg"}, up.names)
	assert.Equal(t, "jpegbytes", up.body)
}

func TestCreateAnimalRejectsBadAge(t *testing.T) {
	h := NewHandler(NewInMemoryRepository(), nil, logging.Discard())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("microchip_number", "1")
	_ = mw.WriteField("name", "x")
	_ = mw.WriteField("age", "old")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/animals", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.CreateAnimal(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAnimalsFilters(t *testing.T) {
	repo := seedRepo(t)
	h := NewHandler(repo, nil, logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/animals?query=sunrise&sex=male", nil)
	rec := httptest.NewRecorder()
	h.ListAnimals(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Duke", got[0].Name)
}

func TestListAnimalsEmptyIsArray(t *testing.T) {
	h := NewHandler(NewInMemoryRepository(), nil, logging.Discard())
	rec := httptest.NewRecorder()
	h.ListAnimals(rec, httptest.NewRequest(http.MethodGet, "/api/animals", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}
