package implementation

import (
	"os"
	"testing"

	"subsidy-intake-be/internal/model"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/internal/repository/contract/contracttest"
	"subsidy-intake-be/pkg/database"

	"github.com/stretchr/testify/require"
)

// Runs against a real Postgres when DB_CONNECTION_STRING is set
func TestSessionRepositoryContract(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UserSession{}))

	contracttest.RunSessionRepositorySuite(t, func(t *testing.T, clock *contracttest.Clock) contract.SessionRepository {
		require.NoError(t, db.Exec("DELETE FROM user_sessions").Error)
		return NewSessionRepositoryWithClock(db, clock.Now)
	})
}
