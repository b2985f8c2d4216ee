package user

import (
	"context"
	"testing"

	"github.com/NordCoder/authgate/internal/password"
	"github.com/NordCoder/authgate/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepo()
	hasher := password.NewBcrypt(bcrypt.MinCost)
	uc := New(repo, memory.Transactor{}, hasher, nil)

	created, err := uc.EnsureAdmin(ctx, " Admin@Example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.EnsureAdmin(ctx, "admin@example.com", "different")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsActive)
	assert.True(t, hasher.Verify("admin123", admin.PasswordHash), "existing admin keeps its password")
}
