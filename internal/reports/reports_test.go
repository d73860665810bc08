package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vetchart/pkg/logging"
)

var farmQuery = regexp.QuoteMeta("FROM animals a")

func TestFarmsReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"farm", "animals", "records", "upcoming", "doctors"}).
		AddRow("(unassigned)", 1, 0, 0, "{}").
		AddRow("Sunrise", 3, 7, 2, `{"Dr. Ito","Dr. Sato"}`)
	mock.ExpectQuery(farmQuery).
		WithArgs("2025-08-30", UnassignedFarm).
		WillReturnRows(rows)

	farms, err := NewRepository(db).Farms(context.Background(), time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, farms, 2)
	assert.Equal(t, FarmReport{Farm: "(unassigned)", Animals: 1, Doctors: []string{}}, farms[0])
	assert.Equal(t, FarmReport{Farm: "Sunrise", Animals: 3, Records: 7, UpcomingVisits: 2, Doctors: []string{"Dr. Ito", "Dr. Sato"}}, farms[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmsReportQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(farmQuery).WillReturnError(errors.New("relation \"animals\" does not exist"))

	_, err = NewRepository(db).Farms(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reports: farm query")
}

func TestGetFarmsHandler(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(farmQuery).
		WithArgs("2025-08-31", UnassignedFarm).
		WillReturnRows(sqlmock.NewRows([]string{"farm", "animals", "records", "upcoming", "doctors"}).
			AddRow("Kita", 2, 4, 1, `{"Dr. Mori"}`))

	tokyo := time.FixedZone("JST", 9*60*60)
	h := NewHandler(NewRepository(db), tokyo, logging.Discard())
	h.now = func() time.Time { return time.Date(2025, 8, 30, 20, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.GetFarms(rec, httptest.NewRequest(http.MethodGet, "/admin/reports/farms", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FarmsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2025-08-31", resp.AsOf)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []string{"Dr. Mori"}, resp.Farms[0].Doctors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFarmsHandlerError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(farmQuery).WillReturnError(errors.New("boom"))

	rec := httptest.NewRecorder()
	NewHandler(NewRepository(db), nil, logging.Discard()).GetFarms(rec, httptest.NewRequest(http.MethodGet, "/admin/reports/farms", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
