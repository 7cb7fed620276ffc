package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteURL(t *testing.T, name string) string {
	return "sqlite:///" + filepath.Join(t.TempDir(), name)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SECRET_KEY", "admin-test-secret")
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "--db", sqliteURL(t, "ims.db"), "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")
}

func TestUsersLifecycle(t *testing.T) {
	setupEnv(t)
	db := sqliteURL(t, "ims.db")

	out, err := run(t, "--db", db, "users", "create",
		"--name", "Hana", "--email", "HR@Example.com", "--password", "pw", "--role", "hr")
	require.NoError(t, err)
	assert.Contains(t, out, "created hr@example.com (hr)")

	_, err = run(t, "--db", db, "users", "create",
		"--name", "Hana", "--email", "hr@example.com", "--password", "pw")
	assert.Error(t, err)

	out, err = run(t, "--db", db, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "hr@example.com")

	out, err = run(t, "--db", db, "users", "toggle", "hr@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "hr@example.com is now inactive")

	_, err = run(t, "--db", db, "users", "toggle", "ghost@example.com")
	assert.Error(t, err)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "--db", sqliteURL(t, "ims.db"), "users", "create",
		"--name", "X", "--email", "x@example.com", "--password", "pw", "--role", "admin")
	assert.ErrorContains(t, err, "Invalid role")
}

func TestCopyDB(t *testing.T) {
	setupEnv(t)
	src := sqliteURL(t, "src.db")
	dst := sqliteURL(t, "dst.db")

	_, err := run(t, "--db", src, "users", "create",
		"--name", "Ivy", "--email", "ivy@example.com", "--password", "pw", "--role", "intern")
	require.NoError(t, err)

	out, err := run(t, "copy-db", "--from", src, "--to", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "copied 1 users, 0 evaluations")

	out, err = run(t, "copy-db", "--from", src, "--to", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "copied 0 users")

	out, err = run(t, "--db", dst, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ivy@example.com")
}

func TestCopyDBRequiresFlags(t *testing.T) {
	_, err := run(t, "copy-db", "--from", "sqlite://")
	assert.Error(t, err)
}
