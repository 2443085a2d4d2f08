// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/reconcile"
)

const planDoc = `
Shows the steps an apply would perform to converge the runtime to the
deployment file, without changing anything.

Examples:
    berth plan minio.yaml
    berth plan minio.yaml --format json
`

func newPlanCommand() cmd.Command {
	return &planCommand{newBroker: newRuntimeBroker}
}

type planCommand struct {
	cmd.CommandBase

	out       cmd.Output
	newBroker func() (runtimeBroker, error)

	path string
}

// Info implements cmd.Command.
func (c *planCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "plan",
		Args:    "<deployment-file>",
		Purpose: "Preview the changes an apply would make.",
		Doc:     planDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *planCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", map[string]cmd.Formatter{
		"yaml": cmd.FormatYaml,
		"json": cmd.FormatJson,
	})
}

// Init implements cmd.Command.
func (c *planCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment file specified")
	}
	c.path = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *planCommand) Run(ctx *cmd.Context) error {
	d, err := deployment.ReadFile(c.path)
	if err != nil {
		return errors.Trace(err)
	}
	b, err := c.newBroker()
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = b.Close() }()

	r, err := reconcile.NewReconciler(reconcile.Config{Broker: b})
	if err != nil {
		return errors.Trace(err)
	}
	plan, err := r.Plan(context.Background(), d)
	if err != nil {
		return errors.Trace(err)
	}
	if !plan.Changes() {
		ctx.Infof("deployment %q is already converged", d.Name)
	}
	return c.out.Write(ctx, plan)
}
