package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/vetchart/internal/database"
)

// PostgresRepository stores records in the relational database.
type PostgresRepository struct {
	db database.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("records: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, animal_id, soap_s, soap_o, soap_a, soap_p, images, audio_url, medications,
	visit_date, medication_history, next_visit_date, next_visit_time, doctor, nosai_points,
	external_case_id, external_ref_url, created_at`

func (r *PostgresRepository) Create(ctx context.Context, rec *Record) (*Record, error) {
	if err := rec.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = newRecordID()
	}
	meds, err := json.Marshal(rec.Medications)
	if err != nil {
		return nil, fmt.Errorf("records: marshal medications: %w", err)
	}
	query := `
		INSERT INTO records (id, animal_id, soap_s, soap_o, soap_a, soap_p, images, audio_url, medications,
			visit_date, medication_history, next_visit_date, next_visit_time, doctor, nosai_points,
			external_case_id, external_ref_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + recordColumns
	row := r.db.QueryRow(ctx, query,
		rec.ID,
		rec.AnimalID,
		rec.Soap.S,
		rec.Soap.O,
		rec.Soap.A,
		rec.Soap.P,
		rec.Images,
		rec.AudioURL,
		meds,
		rec.VisitDate,
		rec.MedicationHistory,
		rec.NextVisitDate,
		rec.NextVisitTime,
		rec.Doctor,
		nosaiParam(rec.NosaiPoints),
		rec.ExternalCaseID,
		rec.ExternalRefURL,
	)
	out, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("records: insert failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	out, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("records: select failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *Record) (*Record, error) {
	if err := rec.Validate(time.Now().UTC()); err != nil {
		return nil, err
	}
	meds, err := json.Marshal(rec.Medications)
	if err != nil {
		return nil, fmt.Errorf("records: marshal medications: %w", err)
	}
	query := `
		UPDATE records SET soap_s = $2, soap_o = $3, soap_a = $4, soap_p = $5, images = $6, audio_url = $7,
			medications = $8, next_visit_date = $9, next_visit_time = $10, doctor = $11, nosai_points = $12,
			external_case_id = $13, external_ref_url = $14
		WHERE id = $1
		RETURNING ` + recordColumns
	row := r.db.QueryRow(ctx, query,
		rec.ID,
		rec.Soap.S,
		rec.Soap.O,
		rec.Soap.A,
		rec.Soap.P,
		rec.Images,
		rec.AudioURL,
		meds,
		rec.NextVisitDate,
		rec.NextVisitTime,
		rec.Doctor,
		nosaiParam(rec.NosaiPoints),
		rec.ExternalCaseID,
		rec.ExternalRefURL,
	)
	out, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("records: update failed: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("records: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByAnimal(ctx context.Context, animalID string) ([]*Record, error) {
	return r.query(ctx, `SELECT `+recordColumns+` FROM records WHERE animal_id = $1 ORDER BY created_at, seq`, animalID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Record, error) {
	return r.query(ctx, `SELECT `+recordColumns+` FROM records ORDER BY animal_id, created_at, seq`)
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]*Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("records: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("records: scan failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: list rows: %w", err)
	}
	return out, nil
}

func nosaiParam(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec   Record
		meds  []byte
		nosai pgtype.Int4
	)
	if err := row.Scan(
		&rec.ID,
		&rec.AnimalID,
		&rec.Soap.S,
		&rec.Soap.O,
		&rec.Soap.A,
		&rec.Soap.P,
		&rec.Images,
		&rec.AudioURL,
		&meds,
		&rec.VisitDate,
		&rec.MedicationHistory,
		&rec.NextVisitDate,
		&rec.NextVisitTime,
		&rec.Doctor,
		&nosai,
		&rec.ExternalCaseID,
		&rec.ExternalRefURL,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(meds) > 0 {
		if err := json.Unmarshal(meds, &rec.Medications); err != nil {
			return nil, fmt.Errorf("records: decode medications: %w", err)
		}
	}
	if nosai.Valid {
		v := int(nosai.Int32)
		rec.NosaiPoints = &v
	}
	if rec.Images == nil {
		rec.Images = []string{}
	}
	if rec.Medications == nil {
		rec.Medications = []Medication{}
	}
	if rec.MedicationHistory == nil {
		rec.MedicationHistory = []string{}
	}
	return &rec, nil
}
