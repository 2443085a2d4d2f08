// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4"
	"github.com/juju/errors"

	"github.com/canonical/berth/core/deployment"
)

const validateDoc = `
Parses and validates a deployment file without contacting the container
runtime. The command exits non-zero if the file is not a valid
deployment.

Examples:
    berth validate minio.yaml
`

func newValidateCommand() cmd.Command {
	return &validateCommand{}
}

type validateCommand struct {
	cmd.CommandBase

	path string
}

// Info implements cmd.Command.
func (c *validateCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "validate",
		Args:    "<deployment-file>",
		Purpose: "Check that a deployment file is well formed.",
		Doc:     validateDoc,
	}
}

// Init implements cmd.Command.
func (c *validateCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment file specified")
	}
	c.path = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *validateCommand) Run(ctx *cmd.Context) error {
	d, err := deployment.ReadFile(c.path)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("deployment %q is valid: %d container(s), %d output(s)",
		d.Name, len(d.Containers), len(d.Outputs))
	return nil
}
