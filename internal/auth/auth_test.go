package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cattle-certification-api-server/internal/models"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	user := models.User{ID: "u-1", Email: "vet@example.com", Role: models.RoleVeterinarian, ProfileID: "vet-1"}
	token, err := m.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleVeterinarian, claims.Role)
	assert.Equal(t, "vet-1", claims.ProfileID)
}

func TestManagerRejectsBadTokens(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := m.GenerateJWT(models.User{ID: "u-1", Role: models.RoleProducer})
	require.NoError(t, err)

	other, err := NewManager("another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.Error(t, err)

	_, err = NewManager("", time.Hour)
	assert.Error(t, err)
}
