// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/reconcile"
	"github.com/canonical/berth/internal/store"
)

const destroyDoc = `
Stops and removes every container a deployment owns, then deletes the
local record of the deployment. The target is either a deployment file
or the name of a previously applied deployment.

Containers are only removed if they carry the deployment's ownership
label; containers created outside berth are left alone and abort the
destroy.

Examples:
    berth destroy minio.yaml
    berth destroy minio -y
`

func newDestroyCommand() cmd.Command {
	return &destroyCommand{
		newBroker: newRuntimeBroker,
		store:     store.NewFileStore(),
	}
}

type destroyCommand struct {
	cmd.CommandBase

	newBroker func() (runtimeBroker, error)
	store     store.Store

	target    string
	assumeYes bool
}

// Info implements cmd.Command.
func (c *destroyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "destroy",
		Args:    "<deployment-file-or-name>",
		Purpose: "Remove a deployment's containers and its local record.",
		Doc:     destroyDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *destroyCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.assumeYes, "y", false, "Do not prompt for confirmation")
	f.BoolVar(&c.assumeYes, "yes", false, "")
}

// Init implements cmd.Command.
func (c *destroyCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment specified")
	}
	c.target = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *destroyCommand) Run(ctx *cmd.Context) error {
	name, containers, err := c.resolveTarget()
	if err != nil {
		return errors.Trace(err)
	}
	if len(containers) == 0 {
		ctx.Infof("deployment %q has no containers recorded", name)
		return errors.Trace(c.store.RemoveDeployment(name))
	}

	if !c.assumeYes {
		fmt.Fprintf(ctx.Stderr, "This will remove containers %s of deployment %q.\n",
			strings.Join(containers, ", "), name)
		if !confirm(ctx) {
			ctx.Infof("destroy aborted")
			return nil
		}
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
	if err := r.Destroy(context.Background(), name, containers); err != nil {
		return errors.Trace(err)
	}
	if err := c.store.RemoveDeployment(name); err != nil {
		return errors.Annotate(err, "removing deployment record")
	}
	ctx.Infof("deployment %q destroyed", name)
	return nil
}

// resolveTarget interprets the argument as a deployment file if one
// exists at that path, and as a recorded deployment name otherwise.
func (c *destroyCommand) resolveTarget() (string, []string, error) {
	if _, err := os.Stat(c.target); err == nil {
		d, err := deployment.ReadFile(c.target)
		if err != nil {
			return "", nil, errors.Trace(err)
		}
		return d.Name, d.SortedContainerNames(), nil
	}
	details, err := c.store.DeploymentByName(c.target)
	if err != nil {
		return "", nil, errors.Trace(err)
	}
	names := details.ContainerNames()
	sort.Strings(names)
	return c.target, names, nil
}

func confirm(ctx *cmd.Context) bool {
	fmt.Fprintf(ctx.Stderr, "Continue [y/N]? ")
	scanner := bufio.NewScanner(ctx.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
