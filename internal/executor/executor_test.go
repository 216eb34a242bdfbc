package executor

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_QueryRoutesThroughQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	e := NewWithDB(db, Target{Type: "sqlite"}, nil)
	defer func() { _ = e.Close() }()

	mock.ExpectQuery("SELECT A.id, A.name\nFROM A").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "first").
			AddRow(2, nil))

	res, err := e.Run(context.Background(), "SELECT A.id, A.name\nFROM A")
	require.NoError(t, err)
	require.True(t, res.IsQuery())
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"1", "first"}, res.Rows[0])
	assert.Equal(t, "NULL", res.Rows[1][1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_WithPrefixIsQuery(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	e := NewWithDB(db, Target{Type: "sqlite"}, nil)
	defer func() { _ = e.Close() }()

	stmt := "WITH r AS (\nSELECT 1\n)\nSELECT * FROM r"
	mock.ExpectQuery(stmt).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	res, err := e.Run(context.Background(), stmt)
	require.NoError(t, err)
	assert.True(t, res.IsQuery())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_DMLRoutesThroughExec(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	e := NewWithDB(db, Target{Type: "sqlite"}, nil)
	defer func() { _ = e.Close() }()

	stmt := "DELETE FROM T\nWHERE id IN (SELECT id\nFROM S)"
	mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := e.Run(context.Background(), stmt)
	require.NoError(t, err)
	assert.False(t, res.IsQuery())
	assert.Equal(t, int64(3), res.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_QueryErrorWrapped(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	e := NewWithDB(db, Target{Type: "sqlite"}, nil)
	defer func() { _ = e.Close() }()

	mock.ExpectQuery("SELECT * FROM missing").WillReturnError(assert.AnError)

	_, err = e.Run(context.Background(), "SELECT * FROM missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(context.Background(), Target{Type: "oracle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target type")
}

func TestIsRowReturning(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"-- leading comment\nSELECT 1", true},
		{"WITH r AS (SELECT 1) SELECT * FROM r", true},
		{"INSERT INTO t (a) VALUES (1)", false},
		{"UPDATE t SET a=1", false},
		{"DELETE FROM t", false},
		{"-- only a comment", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRowReturning(tt.sql), tt.sql)
	}
}
