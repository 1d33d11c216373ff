package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashVerify(t *testing.T) {
	hash, err := Hash("fucapi2026")
	require.NoError(t, err)
	require.NotEqual(t, "fucapi2026", hash)

	ok, err := Verify("fucapi2026", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Verify("outra-senha", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("segredo-de-teste-com-32-caracteres!", time.Minute)

	token, jti, err := manager.GenerateAccessToken("admin", AudienceAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := manager.ParseAndValidate(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Subject)
	require.Equal(t, AudienceAdmin, claims.Audience[0])
	require.Equal(t, jti, claims.ID)
}

func TestJWTExpirado(t *testing.T) {
	manager := NewJWTManager("segredo-de-teste-com-32-caracteres!", -time.Minute)

	token, _, err := manager.GenerateAccessToken("admin", AudienceAdmin)
	require.NoError(t, err)

	_, err = manager.ParseAndValidate(token)
	require.Error(t, err)
}

func TestJWTAssinaturaInvalida(t *testing.T) {
	emissor := NewJWTManager("segredo-de-teste-com-32-caracteres!", time.Minute)
	validador := NewJWTManager("outro-segredo-tambem-com-32-chars!!", time.Minute)

	token, _, err := emissor.GenerateAccessToken("admin", AudienceAdmin)
	require.NoError(t, err)

	_, err = validador.ParseAndValidate(token)
	require.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	raw, hashed, err := GenerateRefreshToken()
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.NotEqual(t, raw, hashed)

	// o hash é determinístico: é assim que o token vira chave no redis
	require.Equal(t, hashed, HashRefreshToken(raw))

	outro, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	require.NotEqual(t, raw, outro)

	key := RefreshRedisKey(AudienceAdmin, hashed)
	require.Contains(t, key, AudienceAdmin)
	require.Contains(t, key, hashed)
}
