package contacts

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

func newServiceTest(t *testing.T) (*Service, sqlmock.Sqlmock, *observability.Metrics) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewService(NewStore(db), logger, metrics), mock, metrics
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, DefaultPageSize, 0},
		{-5, -5, DefaultPageSize, 0},
		{25, 10, 25, 10},
		{1000, 0, MaxPageSize, 0},
	}

	for _, tt := range tests {
		limit, offset := clampPage(tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}

func TestServiceListAppliesPageBounds(t *testing.T) {
	service, mock, _ := newServiceTest(t)

	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WithArgs(int64(7), "", "", "", MaxPageSize, 0).
		WillReturnRows(sqlmock.NewRows(contactCols))

	_, err := service.List(context.Background(), 7, SearchFilter{}, 5000, -1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceUpcomingBirthdaysDefaultWindow(t *testing.T) {
	service, mock, _ := newServiceTest(t)

	mock.ExpectQuery("SELECT (.+) FROM contacts").
		WithArgs(int64(7), DefaultBirthdayWindowDays).
		WillReturnRows(sqlmock.NewRows(contactCols))

	_, err := service.UpcomingBirthdays(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRefreshMetrics(t *testing.T) {
	service, mock, metrics := newServiceTest(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

	service.RefreshMetrics(context.Background())
	assert.Equal(t, float64(12), testutil.ToFloat64(metrics.ContactsTotal))
}

func TestSearchFilterEmpty(t *testing.T) {
	assert.True(t, SearchFilter{}.Empty())
	assert.False(t, SearchFilter{FirstName: "Ada"}.Empty())
}
