package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestBansCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--store", "sqlite",
		"--db", filepath.Join(dir, "chat.db"),
		"--log-level", "error",
	}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), common...)
	}

	require.Equal(t, "banned eve\n", runCLI(t, with("bans", "add", "eve")...))
	require.Equal(t, "banned mallory\n", runCLI(t, with("bans", "add", "mallory")...))
	require.Equal(t, "eve\nmallory\n", runCLI(t, with("bans", "list")...))

	require.Equal(t, "unbanned eve\n", runCLI(t, with("bans", "remove", "eve")...))
	require.Equal(t, "mallory\n", runCLI(t, with("bans", "list")...))
}

func TestBansAddRequiresUser(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bans", "add"})
	require.Error(t, cmd.Execute())
}

func TestRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bans", "list", "--config", filepath.Join(dir, "config.yaml"), "--store", "postgres"})
	require.Error(t, cmd.Execute())
}
