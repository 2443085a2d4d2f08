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
	"github.com/canonical/berth/internal/store"
)

const statusDoc = `
Reports the live status of every container a deployment file declares:
pending (declared but never applied), running, stopped, drifted from
its declaration, or missing from the runtime after an earlier apply.

Examples:
    berth status minio.yaml
`

func newStatusCommand() cmd.Command {
	return &statusCommand{
		newBroker: newRuntimeBroker,
		store:     store.NewFileStore(),
	}
}

type statusCommand struct {
	cmd.CommandBase

	out       cmd.Output
	newBroker func() (runtimeBroker, error)
	store     store.Store

	path string
}

// Info implements cmd.Command.
func (c *statusCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "status",
		Args:    "<deployment-file>",
		Purpose: "Show the live status of a deployment's containers.",
		Doc:     statusDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *statusCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", map[string]cmd.Formatter{
		"yaml": cmd.FormatYaml,
		"json": cmd.FormatJson,
	})
}

// Init implements cmd.Command.
func (c *statusCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment file specified")
	}
	c.path = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *statusCommand) Run(ctx *cmd.Context) error {
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
	var recorded map[string]string
	if details, err := c.store.DeploymentByName(d.Name); err == nil {
		recorded = details.ContainerIDs
	} else if !errors.IsNotFound(err) {
		return errors.Trace(err)
	}
	results, err := r.Status(context.Background(), d, recorded)
	if err != nil {
		return errors.Trace(err)
	}
	return c.out.Write(ctx, results)
}
