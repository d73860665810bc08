package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// FarmReport summarizes one farm's activity.
type FarmReport struct {
	Farm           string   `json:"farm"`
	Animals        int      `json:"animals"`
	Records        int      `json:"records"`
	UpcomingVisits int      `json:"upcoming_visits"`
	Doctors        []string `json:"doctors"`
}

// Repository reads the dashboard aggregates.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const farmReportQuery = `
	SELECT COALESCE(NULLIF(btrim(a.farm_id), ''), $2) AS farm,
	       COUNT(DISTINCT a.id) AS animals,
	       COUNT(r.id) AS records,
	       COUNT(r.id) FILTER (WHERE left(r.next_visit_date, 10) >= $1) AS upcoming,
	       COALESCE(array_agg(DISTINCT r.doctor) FILTER (WHERE r.doctor <> ''), '{}') AS doctors
	FROM animals a
	LEFT JOIN records r ON r.animal_id = a.id
	GROUP BY 1
	ORDER BY 1`

// UnassignedFarm labels animals without a farm.
const UnassignedFarm = "(unassigned)"

// Farms returns one row per farm. Visits on or after today count as upcoming.
func (r *Repository) Farms(ctx context.Context, today time.Time) ([]FarmReport, error) {
	rows, err := r.db.QueryContext(ctx, farmReportQuery, today.Format("2006-01-02"), UnassignedFarm)
	if err != nil {
		return nil, fmt.Errorf("reports: farm query: %w", err)
	}
	defer rows.Close()

	out := []FarmReport{}
	for rows.Next() {
		var f FarmReport
		if err := rows.Scan(&f.Farm, &f.Animals, &f.Records, &f.UpcomingVisits, pq.Array(&f.Doctors)); err != nil {
			return nil, fmt.Errorf("reports: scan farm: %w", err)
		}
		if f.Doctors == nil {
			f.Doctors = []string{}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: farm rows: %w", err)
	}
	return out, nil
}
