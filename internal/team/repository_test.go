// AngelaMos | 2026
// repository_test.go

package team

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/rbac"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
	)
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestCreateWithOwnerSingleTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("team-1", "Acme", "", "user-1").
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(now, now),
		)
	mock.ExpectQuery(`INSERT INTO team_members`).
		WithArgs("member-1", "team-1", "user-1", rbac.TeamRoleOwner, "user-1").
		WillReturnRows(
			sqlmock.NewRows([]string{"created_at"}).AddRow(now),
		)
	mock.ExpectCommit()

	team := &Team{ID: "team-1", Name: "Acme", CreatedBy: "user-1"}
	owner := &Member{
		ID:      "member-1",
		UserID:  "user-1",
		Role:    rbac.TeamRoleOwner,
		AddedBy: "user-1",
	}

	require.NoError(t, repo.CreateWithOwner(context.Background(), team, owner))
	assert.Equal(t, "team-1", owner.TeamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithOwnerRollsBackOnDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO teams`).
		WithArgs("team-1", "Acme", "", "user-1").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	team := &Team{ID: "team-1", Name: "Acme", CreatedBy: "user-1"}
	owner := &Member{ID: "member-1", UserID: "user-1", Role: rbac.TeamRoleOwner}

	err := repo.CreateWithOwner(context.Background(), team, owner)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteCascadeSingleTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE teams`).
		WithArgs("team-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE documents`).
		WithArgs("team-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`UPDATE projects`).
		WithArgs("team-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.SoftDeleteCascade(context.Background(), "team-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteCascadeMissingTeamRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE teams`).
		WithArgs("team-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SoftDeleteCascade(context.Background(), "team-1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferOwnershipSingleTransaction(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE team_members`).
		WithArgs("target-member", rbac.TeamRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE team_members\s+SET role = 'ADMIN'\s+WHERE id = \$1 AND role = 'OWNER'`).
		WithArgs("actor-member").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.TransferOwnership(
		context.Background(),
		"actor-member",
		"target-member",
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferOwnershipRollsBackWhenTargetMissing(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE team_members`).
		WithArgs("target-member", rbac.TeamRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransferOwnership(
		context.Background(),
		"actor-member",
		"target-member",
	)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A concurrent transfer that already demoted the actor makes the conditioned
// demote match zero rows; the promote must not survive the rollback.
func TestTransferOwnershipRollsBackWhenActorAlreadyDemoted(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE team_members`).
		WithArgs("target-member", rbac.TeamRoleOwner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE team_members\s+SET role = 'ADMIN'\s+WHERE id = \$1 AND role = 'OWNER'`).
		WithArgs("actor-member").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.TransferOwnership(
		context.Background(),
		"actor-member",
		"target-member",
	)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberSkipsOwnerRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM team_members\s+WHERE id = \$1 AND role <> 'OWNER'`).
		WithArgs("member-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RemoveMember(context.Background(), "member-1"))
	assert.NoError(t, mock.ExpectationsWereMet())

	// a member promoted to OWNER between check and delete is not removed
	mock.ExpectExec(`DELETE FROM team_members\s+WHERE id = \$1 AND role <> 'OWNER'`).
		WithArgs("member-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveMember(context.Background(), "member-1")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
