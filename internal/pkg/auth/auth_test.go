package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vardan-naturals/storefront/internal/config"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:            "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry: time.Hour,
		},
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, expiresAt, err := manager.GenerateAccessToken("admin@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestJWTManager_Rejects(t *testing.T) {
	cfg := testConfig()
	manager := NewJWTManager(cfg)

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager(cfg)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := expired.GenerateAccessToken("admin@example.com", RoleAdmin)
		require.NoError(t, err)

		_, err = manager.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testConfig()
		other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
		token, _, err := NewJWTManager(other).GenerateAccessToken("admin@example.com", RoleAdmin)
		require.NoError(t, err)

		_, err = manager.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong token type", func(t *testing.T) {
		claims := &Claims{
			Email:     "admin@example.com",
			Role:      RoleAdmin,
			TokenType: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.App.Name,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
		require.NoError(t, err)

		_, err = manager.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := manager.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader(""))
}

func TestPasswordManager(t *testing.T) {
	manager := NewPasswordManager(bcrypt.MinCost)

	_, err := manager.HashPassword("weak")
	assert.Error(t, err)

	hash, err := manager.HashPassword("Neem#Oil2024")
	require.NoError(t, err)
	require.NoError(t, manager.VerifyPassword("Neem#Oil2024", hash))
	assert.Error(t, manager.VerifyPassword("neem#oil2024", hash))

	assert.NoError(t, manager.Authenticate("admin@example.com", "Neem#Oil2024", "admin@example.com", hash))
	assert.ErrorIs(t, manager.Authenticate("other@example.com", "Neem#Oil2024", "admin@example.com", hash), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Authenticate("admin@example.com", "wrong", "admin@example.com", hash), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Authenticate("admin@example.com", "Neem#Oil2024", "admin@example.com", ""), ErrInvalidCredentials)
}

func TestValidatePassword(t *testing.T) {
	tests := map[string]bool{
		"Neem#Oil2024":  true,
		"short1!A":      true,
		"nouppercase1!": false,
		"NOLOWERCASE1!": false,
		"NoNumbers!!":   false,
		"NoSpecial123":  false,
		"Sh0rt!":        false,
	}
	for password, ok := range tests {
		err := ValidatePassword(password)
		if ok {
			assert.NoError(t, err, password)
		} else {
			assert.Error(t, err, password)
		}
	}
}
