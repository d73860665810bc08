package animals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/vetchart/internal/database"
)

// PostgresRepository stores animals in the relational database.
type PostgresRepository struct {
	db database.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("animals: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const animalColumns = `id, name, farm_id, age, sex, breed, thumbnail_url, created_at`

func (r *PostgresRepository) Create(ctx context.Context, req *CreateAnimalRequest) (*Animal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var age pgtype.Int4
	if req.Age != nil {
		age = pgtype.Int4{Int32: int32(*req.Age), Valid: true}
	}
	query := `
		INSERT INTO animals (id, name, farm_id, age, sex, breed, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + animalColumns
	row := r.db.QueryRow(ctx, query,
		req.MicrochipNumber,
		req.Name,
		req.FarmID,
		age,
		req.Sex,
		req.Breed,
		req.ThumbnailURL,
	)
	animal, err := scanAnimal(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("animals: insert failed: %w", err)
	}
	return animal, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals WHERE id = $1`
	animal, err := scanAnimal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("animals: select failed: %w", err)
	}
	return animal, nil
}

// List applies the filter in SQL with the same semantics as Filter.Match.
func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]*Animal, error) {
	query := `
		SELECT ` + animalColumns + `
		FROM animals
		WHERE ($1 = '' OR strpos(lower(id), $1) > 0 OR strpos(lower(name), $1) > 0 OR strpos(lower(farm_id), $1) > 0)
		  AND ($2 = '' OR id = $2)
		  AND ($3 = '' OR farm_id = '' OR strpos(farm_id, $3) > 0)
		  AND ($4 = '' OR breed = '' OR breed = $4)
		  AND ($5 = '' OR sex = '' OR sex = $5)
		ORDER BY name, id
	`
	rows, err := r.db.Query(ctx, query,
		strings.ToLower(strings.TrimSpace(filter.Query)),
		filter.MicrochipNumber,
		filter.FarmID,
		filter.Breed,
		filter.Sex,
	)
	if err != nil {
		return nil, fmt.Errorf("animals: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Animal
	for rows.Next() {
		animal, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("animals: scan failed: %w", err)
		}
		out = append(out, animal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("animals: list rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Farms(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT btrim(farm_id) AS farm
		FROM animals
		WHERE btrim(farm_id) <> ''
		ORDER BY farm
	`)
	if err != nil {
		return nil, fmt.Errorf("animals: farms failed: %w", err)
	}
	defer rows.Close()

	var farms []string
	for rows.Next() {
		var farm string
		if err := rows.Scan(&farm); err != nil {
			return nil, fmt.Errorf("animals: scan farm: %w", err)
		}
		farms = append(farms, farm)
	}
	return farms, rows.Err()
}

func scanAnimal(row pgx.Row) (*Animal, error) {
	var (
		a   Animal
		age pgtype.Int4
	)
	if err := row.Scan(&a.ID, &a.Name, &a.FarmID, &age, &a.Sex, &a.Breed, &a.ThumbnailURL, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.MicrochipNumber = a.ID
	if age.Valid {
		v := int(age.Int32)
		a.Age = &v
	}
	return &a, nil
}
