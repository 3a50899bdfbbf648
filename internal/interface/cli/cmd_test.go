package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestNewRoot(t *testing.T) {
	cmd := NewRoot()

	if cmd == nil {
		t.Fatal("Expected non-nil command")
	}

	if cmd.Use != "fablestep" {
		t.Errorf("Expected Use to be 'fablestep', got %s", cmd.Use)
	}

	expected := []string{"new", "step", "status", "history", "games", "export", "version"}
	for _, name := range expected {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestNewStepCmd(t *testing.T) {
	cmd := newStepCmd()

	if cmd.RunE == nil {
		t.Error("Step command missing RunE function")
	}

	for _, flag := range []string{"choice", "version", "roll", "seed"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Expected --%s flag to be registered", flag)
		}
	}

	// Verify it's a cobra command
	if _, ok := interface{}(cmd).(*cobra.Command); !ok {
		t.Error("Expected *cobra.Command type")
	}
}

func TestNewNewCmd(t *testing.T) {
	cmd := newNewCmd()

	if cmd.RunE == nil {
		t.Error("New command missing RunE function")
	}
	if cmd.Flags().Lookup("item") == nil {
		t.Error("Expected --item flag to be registered")
	}
}

func TestNewStatusCmd(t *testing.T) {
	cmd := newStatusCmd()

	if cmd.RunE == nil {
		t.Error("Status command missing RunE function")
	}
	if cmd.Flags().Lookup("json") == nil {
		t.Error("Expected --json flag to be registered")
	}
}
