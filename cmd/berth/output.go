// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/berth/internal/store"
)

const outputDoc = `
Prints the outputs recorded by the last successful apply of a
deployment. With an output name, prints only that output's value.

Sensitive outputs are redacted unless --show-secrets is given.

Examples:
    berth output minio
    berth output minio console_url
    berth output minio root_password --show-secrets
`

func newOutputCommand() cmd.Command {
	return &outputCommand{store: store.NewFileStore()}
}

type outputCommand struct {
	cmd.CommandBase

	out   cmd.Output
	store store.Store

	deploymentName string
	outputName     string
	showSecrets    bool
}

// Info implements cmd.Command.
func (c *outputCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "output",
		Args:    "<deployment-name> [output-name]",
		Purpose: "Show the recorded outputs of an applied deployment.",
		Doc:     outputDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *outputCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", map[string]cmd.Formatter{
		"yaml": cmd.FormatYaml,
		"json": cmd.FormatJson,
	})
	f.BoolVar(&c.showSecrets, "show-secrets", false, "Show sensitive output values")
}

// Init implements cmd.Command.
func (c *outputCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment name specified")
	}
	c.deploymentName = args[0]
	if len(args) > 1 {
		c.outputName = args[1]
		args = args[1:]
	}
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *outputCommand) Run(ctx *cmd.Context) error {
	details, err := c.store.DeploymentByName(c.deploymentName)
	if err != nil {
		return errors.Trace(err)
	}
	outputs := presentOutputs(details.Outputs, c.showSecrets)
	if c.outputName == "" {
		return c.out.Write(ctx, outputs)
	}
	for _, out := range outputs {
		if out.Name == c.outputName {
			return c.out.Write(ctx, out.Value)
		}
	}
	return errors.NotFoundf("output %q of deployment %q", c.outputName, c.deploymentName)
}
