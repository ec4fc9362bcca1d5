package notify

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestMarkLaunchedClaimsFlag(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO automation_triggers").
		WithArgs("ord-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r := NewPGTriggerRepo(mock)
	claimed, err := r.MarkLaunched(context.Background(), "ord-1")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkLaunchedDuplicateIsNotClaimed(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// ON CONFLICT DO NOTHING reports zero rows for the duplicate
	mock.ExpectExec("INSERT INTO automation_triggers").
		WithArgs("ord-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	r := NewPGTriggerRepo(mock)
	claimed, err := r.MarkLaunched(context.Background(), "ord-1")
	require.NoError(t, err)
	require.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}
