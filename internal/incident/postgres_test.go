package incident

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPostgresFeed_LoadRegion(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT lat, lon, hour, day_of_week, category, severity, source").
		WithArgs(campusBox.MinLat, campusBox.MaxLat, campusBox.MinLon, campusBox.MaxLon).
		WillReturnRows(pgxmock.NewRows([]string{
			"lat", "lon", "hour", "day_of_week", "category", "severity", "source",
		}).
			AddRow(ptr(38.9404), ptr(-92.3277), ptr(22), ptr("Friday"), ptr("Larceny"), ptr(2), ptr("pd")).
			AddRow(nil, nil, nil, nil, ptr("assault"), nil, nil))

	feed := &PostgresFeed{Pool: mock}
	records, err := feed.LoadRegion(context.Background(), campusBox)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, CategoryTheft, records[0].Category)
	assert.True(t, records[0].HasLocation)
	assert.Equal(t, 22, records[0].Hour)
	assert.Equal(t, "pd", records[0].Source)

	assert.Equal(t, CategoryAssault, records[1].Category)
	assert.False(t, records[1].HasLocation)
	assert.Equal(t, -1, records[1].Hour)
	assert.Equal(t, 5, records[1].Severity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFeed_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT lat, lon").
		WillReturnError(assert.AnError)

	feed := &PostgresFeed{Pool: mock}
	_, err = feed.LoadRegion(context.Background(), campusBox)
	assert.Error(t, err)
}
