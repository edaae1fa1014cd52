package auth

import (
	"context"
	"testing"
	"time"

	"lv-tradesense/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	return NewService(store.NewMemory(), "tradesense", []byte("test-secret"), time.Hour)
}

func TestRegisterLoginParse(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	userID, err := svc.Register(ctx, "trader@example.com", "correct horse")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "Trader@Example.com", "correct horse")
	require.NoError(t, err)
	subject, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)

	_, err = svc.Login(ctx, "trader@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	_, err := svc.Register(ctx, "", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "not-an-email", "password1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, "a@b.co", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "a@b.co", "password1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "A@B.co", "password2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestParseTokenRejects(t *testing.T) {
	svc := newService()
	other := NewService(store.NewMemory(), "someone-else", []byte("test-secret"), time.Hour)
	foreign, _, err := other.signToken("u1")
	require.NoError(t, err)
	_, err = svc.ParseToken(foreign)
	assert.Error(t, err, "issuer mismatch")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "tradesense",
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	raw, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(raw)
	assert.Error(t, err)

	_, err = svc.ParseToken("garbage")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	userID, err := svc.Register(ctx, "session@example.com", "password123")
	require.NoError(t, err)

	sess, err := svc.Authenticate(ctx, "session@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, userID, sess.User.ID)
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	sub, err := svc.ParseToken(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, sub)

	_, err = svc.Authenticate(ctx, "session@example.com", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
