package animals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func seedRepo(t *testing.T) *InMemoryRepository {
	t.Helper()
	repo := NewInMemoryRepository()
	ctx := context.Background()
	for _, req := range []*CreateAnimalRequest{
		{MicrochipNumber: "392000001", Name: "はなこ", FarmID: "田中牧場", Sex: "female", Breed: "Holstein", Age: intPtr(4)},
		{MicrochipNumber: "392000002", Name: "Bella", FarmID: " Sunrise Farm ", Sex: "female", Breed: "Jersey"},
		{MicrochipNumber: "392000003", Name: "Duke", Owner: "Sunrise Farm", Sex: "male"},
		{MicrochipNumber: "392000004", Name: "Stray"},
	} {
		_, err := repo.Create(ctx, req)
		require.NoError(t, err)
	}
	return repo
}

func TestInMemoryCreateValidates(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &CreateAnimalRequest{Name: "no chip"})
	assert.ErrorIs(t, err, ErrMissingMicrochip)

	_, err = repo.Create(ctx, &CreateAnimalRequest{MicrochipNumber: "1"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = repo.Create(ctx, &CreateAnimalRequest{MicrochipNumber: "1", Name: "x", Age: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidAge)
}

func TestInMemoryCreateDuplicate(t *testing.T) {
	repo := seedRepo(t)
	_, err := repo.Create(context.Background(), &CreateAnimalRequest{MicrochipNumber: "392000001", Name: "again"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestInMemoryGet(t *testing.T) {
	repo := seedRepo(t)
	a, err := repo.Get(context.Background(), "392000003")
	require.NoError(t, err)
	assert.Equal(t, "Duke", a.Name)
	assert.Equal(t, "Sunrise Farm", a.FarmID, "owner fills farm_id")
	assert.Equal(t, "392000003", a.MicrochipNumber)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryListFilters(t *testing.T) {
	repo := seedRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all ordered by name", Filter{}, []string{"392000002", "392000003", "392000004", "392000001"}},
		{"query matches farm", Filter{Query: "sunrise"}, []string{"392000002", "392000003"}},
		{"query matches chip", Filter{Query: "0004"}, []string{"392000004"}},
		{"microchip exact", Filter{MicrochipNumber: "392000001"}, []string{"392000001"}},
		{"farm keeps animals without farm", Filter{FarmID: "田中"}, []string{"392000004", "392000001"}},
		{"sex", Filter{Sex: "male"}, []string{"392000003", "392000004"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, a := range list {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestInMemoryFarms(t *testing.T) {
	repo := seedRepo(t)
	farms, err := repo.Farms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sunrise Farm", "田中牧場"}, farms)
}
