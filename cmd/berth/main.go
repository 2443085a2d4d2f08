// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/juju/cmd/v4"
)

const version = "0.4.0"

const berthDoc = `
berth converges a local container runtime to the desired state declared
in a deployment file, and publishes the deployment's output values.

A deployment file declares containers (image, command, environment,
port mappings, restart policy) and outputs. berth diffs the declaration
against what the runtime reports and only issues the calls needed to
converge: pulling images, creating, starting or replacing containers.
`

// NewBerthCommand returns the root berth command with all subcommands
// registered.
func NewBerthCommand() *cmd.SuperCommand {
	berth := cmd.NewSuperCommand(cmd.SuperCommandParams{
		Name:    "berth",
		Doc:     strings.TrimSpace(berthDoc),
		Purpose: "Declarative container deployments for a single host.",
		Log:     &cmd.Log{},
		Version: version,
	})
	berth.Register(newValidateCommand())
	berth.Register(newPlanCommand())
	berth.Register(newApplyCommand())
	berth.Register(newStatusCommand())
	berth.Register(newOutputCommand())
	berth.Register(newDestroyCommand())
	return berth
}

// Main runs the berth command line with the given arguments, returning
// the process exit code.
func Main(args []string) int {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to obtain command context: %v\n", err)
		return 2
	}
	return cmd.Main(NewBerthCommand(), ctx, args[1:])
}

func main() {
	os.Exit(Main(os.Args))
}
