package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})

	for _, name := range []string{
		CommandServe,
		CommandMigrate,
		CommandCleanupSessions,
		CommandDeleteUser,
		CommandHealthcheck,
	} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (err=%v)", name, err)
		}
	}
}

func TestNewRootCommand_ServeHasMigrateFlag(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})
	cmd, _, err := root.Find([]string{CommandServe})
	if err != nil {
		t.Fatalf("Find(serve) failed: %v", err)
	}
	if cmd.Flags().Lookup("migrate") == nil {
		t.Error("serve should accept --migrate")
	}
}

func TestRun_DeleteUserRequiresUsername(t *testing.T) {
	restoreDefaultLogger(t)

	err := Run(&bytes.Buffer{}, []string{CommandDeleteUser})
	if err == nil {
		t.Fatal("expected error when username is missing")
	}
	if !strings.Contains(err.Error(), "accepts 1 arg") {
		t.Errorf("err = %v", err)
	}
}

func TestRun_UnknownCommand_ReturnsError(t *testing.T) {
	restoreDefaultLogger(t)

	if err := Run(&bytes.Buffer{}, []string{"worker"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	restoreDefaultLogger(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "")

	for _, args := range [][]string{{}, {CommandServe}, {CommandMigrate}, {CommandCleanupSessions}} {
		if err := Run(&bytes.Buffer{}, args); err == nil {
			t.Errorf("Run(%v) with missing env should return error", args)
		}
	}
}
