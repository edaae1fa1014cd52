package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPasswordFromArg(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret-pass")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestHashPasswordFromStdin(t *testing.T) {
	out, err := run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := run(t, "", "hash-password")
	assert.EqualError(t, err, "password required")
}

func TestJobsRequireDatabase(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("JWT_ISSUER", "tradesense")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("INTERNAL_API_TOKEN", "internal")
	t.Setenv("DB_DSN", "")
	t.Setenv("APP_MODE", "")
	t.Setenv("QUOTE_SOURCE", "")

	_, err := run(t, "", "daily-reset")
	assert.EqualError(t, err, "DB_DSN is required")

	_, err = run(t, "", "verify")
	assert.Error(t, err)
}

func TestJobsRequireConfig(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	_, err := run(t, "", "sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
