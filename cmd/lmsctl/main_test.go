package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSeedAdminCmd(t *testing.T) {
	out, err := run(t, "seed-admin", "--email", "root@example.com", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "admin root@example.com created")
}

func TestSeedAdminCmd_MissingPassword(t *testing.T) {
	_, err := run(t, "seed-admin", "--email", "root@example.com")
	assert.Error(t, err)
}

func TestRemoveAttributeCmd(t *testing.T) {
	out, err := run(t, "remove-attribute", "--collection", "registrations", "--attribute", "PaymentStatus")
	require.NoError(t, err)
	assert.Contains(t, out, "from 0 registrations records")

	_, err = run(t, "remove-attribute", "--collection", "sessions", "--attribute", "x")
	assert.Error(t, err)
}

func TestUpdateEmailCmd_UnknownUser(t *testing.T) {
	_, err := run(t, "update-email", "--from", "a@example.com", "--to", "b@example.com")
	assert.Error(t, err)
}

func TestHashPasswordsCmd(t *testing.T) {
	out, err := run(t, "hash-passwords")
	require.NoError(t, err)
	assert.Contains(t, out, "hashed 0 passwords")
}
