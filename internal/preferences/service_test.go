package preferences

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vetchart/pkg/logging"
)

type memoryStore struct {
	saved   []Preferences
	initial Preferences
	loadErr error
	saveErr error
}

func (m *memoryStore) Load(ctx context.Context) (Preferences, error) {
	return m.initial, m.loadErr
}

func (m *memoryStore) Save(ctx context.Context, p Preferences) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, p)
	return nil
}

func TestNewServiceLoadsAtStartup(t *testing.T) {
	store := &memoryStore{initial: Preferences{CustomFarms: []string{" B ", "A", "B"}, SelectedDoctor: "Dr. Sato"}}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)

	p := svc.Get()
	assert.Equal(t, []string{"A", "B"}, p.CustomFarms)
	assert.Equal(t, "Dr. Sato", p.SelectedDoctor)
	assert.Empty(t, store.saved)
}

func TestNewServiceErrors(t *testing.T) {
	_, err := NewService(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoStore)

	_, err = NewService(context.Background(), &memoryStore{loadErr: errors.New("disk")}, logging.Discard())
	require.Error(t, err)
}

func TestServiceSavesOnEveryChange(t *testing.T) {
	store := &memoryStore{}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.AddFarm(ctx, "Sunrise")
	require.NoError(t, err)
	_, err = svc.AddFarm(ctx, "Sunrise ")
	require.NoError(t, err)
	_, err = svc.SetDoctor(ctx, "Dr. Ito")
	require.NoError(t, err)
	_, err = svc.SetDoctor(ctx, "Dr. Ito")
	require.NoError(t, err)
	p, err := svc.RemoveFarm(ctx, "Sunrise")
	require.NoError(t, err)

	require.Len(t, store.saved, 3, "no-op changes must not be saved")
	assert.Equal(t, []string{"Sunrise"}, store.saved[0].CustomFarms)
	assert.False(t, store.saved[0].UpdatedAt.IsZero())
	assert.Empty(t, p.CustomFarms)
	assert.Equal(t, "Dr. Ito", p.SelectedDoctor)
}

func TestServiceKeepsStateWhenSaveFails(t *testing.T) {
	store := &memoryStore{initial: Preferences{SelectedDoctor: "Dr. Sato"}}
	svc, err := NewService(context.Background(), store, logging.Discard())
	require.NoError(t, err)

	store.saveErr = errors.New("read-only filesystem")
	_, err = svc.SetDoctor(context.Background(), "Dr. Ito")
	require.Error(t, err)
	assert.Equal(t, "Dr. Sato", svc.Get().SelectedDoctor)
}

func TestServiceAddFarmRejectsBlank(t *testing.T) {
	svc, err := NewService(context.Background(), &memoryStore{}, logging.Discard())
	require.NoError(t, err)
	_, err = svc.AddFarm(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyFarm)
}

func TestServiceFarmsMerges(t *testing.T) {
	svc, err := NewService(context.Background(), &memoryStore{initial: Preferences{CustomFarms: []string{"Kita", "Aoba"}}}, logging.Discard())
	require.NoError(t, err)

	got := svc.Farms([]string{"Sunrise", " Kita ", ""})
	assert.Equal(t, []string{"Aoba", "Kita", "Sunrise"}, got)
	assert.Equal(t, []string{"Aoba", "Kita"}, svc.Farms(nil))
}

func TestServiceGetReturnsCopy(t *testing.T) {
	svc, err := NewService(context.Background(), &memoryStore{initial: Preferences{CustomFarms: []string{"Aoba"}}}, logging.Discard())
	require.NoError(t, err)

	p := svc.Get()
	p.CustomFarms[0] = "mutated"
	assert.Equal(t, []string{"Aoba"}, svc.Get().CustomFarms)
}

func TestServiceSurvivesRestartWithFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	svc, err := NewService(ctx, store, logging.Discard())
	require.NoError(t, err)
	_, err = svc.Replace(ctx, Preferences{CustomFarms: []string{"Minami"}, SelectedDoctor: "Dr. Mori"})
	require.NoError(t, err)

	reopened, err := NewService(ctx, store, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"Minami"}, reopened.Get().CustomFarms)
	assert.Equal(t, "Dr. Mori", reopened.Get().SelectedDoctor)
}
