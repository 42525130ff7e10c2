package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplicaURLs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single URL", "postgres://localhost:5432/db", []string{"postgres://localhost:5432/db"}},
		{
			"whitespace and empty entries",
			" postgres://host1/db ,, postgres://host2/db ,",
			[]string{"postgres://host1/db", "postgres://host2/db"},
		},
		{"only commas", " , , ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReplicaURLs(tt.input))
		})
	}
}

func TestDB_ReaderFallsBackToPrimary(t *testing.T) {
	primary, _, err := sqlmock.New()
	require.NoError(t, err)
	defer primary.Close()

	db := NewDB(primary)
	assert.Same(t, primary, db.Reader())
	assert.Same(t, primary, db.Primary())
}

func TestDB_ReaderRoundRobin(t *testing.T) {
	primary, _, err := sqlmock.New()
	require.NoError(t, err)
	r1, _, err := sqlmock.New()
	require.NoError(t, err)
	r2, _, err := sqlmock.New()
	require.NoError(t, err)

	db := NewDB(primary)
	db.replicas = []*sql.DB{r1, r2}
	defer db.Close()

	seen := map[*sql.DB]int{}
	for i := 0; i < 10; i++ {
		seen[db.Reader()]++
	}
	assert.Equal(t, 5, seen[r1])
	assert.Equal(t, 5, seen[r2])
	assert.Zero(t, seen[primary])
}

func TestDB_Ping(t *testing.T) {
	primary, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer primary.Close()

	db := NewDB(primary)

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, db.Ping(context.Background()))
}

func TestDB_PingAllReplicasDown(t *testing.T) {
	primary, pmock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	replica, rmock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db := NewDB(primary)
	db.replicas = []*sql.DB{replica}
	defer db.Close()

	pmock.ExpectPing()
	rmock.ExpectPing().WillReturnError(errors.New("replica down"))

	err = db.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all replicas unhealthy")
}

func TestOpen_InvalidPrimary(t *testing.T) {
	_, err := Open(Config{URL: "postgres://invalid:5432/none?connect_timeout=1&sslmode=disable"}, nil)
	assert.Error(t, err)
}
