// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/cmd/v4"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/reconcile"
	"github.com/canonical/berth/internal/store"
)

const applyDoc = `
Converges the container runtime to the deployment file: pulls missing
images, creates and starts missing containers, restarts stopped ones
and replaces containers whose live configuration drifted from the
declaration. Containers already matching the declaration are left
untouched.

On success the deployment's outputs are printed and recorded locally.
Sensitive outputs are redacted unless --show-secrets is given.

Examples:
    berth apply minio.yaml
    berth apply minio.yaml --show-secrets --format json
    berth apply minio.yaml --registry-auth ~/.berth/registry.yaml
`

func newApplyCommand() cmd.Command {
	return &applyCommand{
		newBroker: newRuntimeBroker,
		store:     store.NewFileStore(),
	}
}

type applyCommand struct {
	cmd.CommandBase

	out       cmd.Output
	newBroker func() (runtimeBroker, error)
	store     store.Store

	path             string
	showSecrets      bool
	timeout          time.Duration
	registryAuthSpec string
}

// Info implements cmd.Command.
func (c *applyCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "apply",
		Args:    "<deployment-file>",
		Purpose: "Converge the runtime to a deployment file.",
		Doc:     applyDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *applyCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "yaml", map[string]cmd.Formatter{
		"yaml": cmd.FormatYaml,
		"json": cmd.FormatJson,
	})
	f.BoolVar(&c.showSecrets, "show-secrets", false, "Show sensitive output values")
	f.DurationVar(&c.timeout, "timeout", 10*time.Minute, "Time allowed for the apply to converge")
	f.StringVar(&c.registryAuthSpec, "registry-auth", "", "Registry credentials, inline YAML or a file path")
}

// Init implements cmd.Command.
func (c *applyCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no deployment file specified")
	}
	c.path = args[0]
	return cmd.CheckEmpty(args[1:])
}

// Run implements cmd.Command.
func (c *applyCommand) Run(ctx *cmd.Context) error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.Annotate(err, "reading deployment file")
	}
	d, err := deployment.Parse(data)
	if err != nil {
		return errors.Annotatef(err, "deployment file %q", c.path)
	}
	registryAuth, err := registryAuthHeader(c.registryAuthSpec)
	if err != nil {
		return errors.Trace(err)
	}

	b, err := c.newBroker()
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = b.Close() }()

	r, err := reconcile.NewReconciler(reconcile.Config{
		Broker:       b,
		RegistryAuth: registryAuth,
	})
	if err != nil {
		return errors.Trace(err)
	}

	applyCtx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		applyCtx, cancel = context.WithTimeout(applyCtx, c.timeout)
		defer cancel()
	}
	result, err := r.Apply(applyCtx, d)
	if err != nil {
		return errors.Trace(err)
	}

	sourcePath := c.path
	if abs, err := filepath.Abs(c.path); err == nil {
		sourcePath = abs
	}
	details := store.DeploymentDetails{
		SourcePath:   sourcePath,
		SourceSHA256: store.SourceChecksum(data),
		AppliedAt:    time.Now().UTC(),
		ContainerIDs: result.ContainerIDs,
		Outputs:      result.Outputs,
	}
	if err := c.store.UpdateDeployment(d.Name, details); err != nil {
		return errors.Annotate(err, "recording deployment")
	}

	if result.Plan.Changes() {
		ctx.Infof("deployment %q converged", d.Name)
	} else {
		ctx.Infof("deployment %q already converged, nothing to do", d.Name)
	}
	return c.out.Write(ctx, presentOutputs(result.Outputs, c.showSecrets))
}

// presentOutputs prepares outputs for display, redacting sensitive
// values unless secrets were requested.
func presentOutputs(outputs []deployment.ResolvedOutput, showSecrets bool) []deployment.ResolvedOutput {
	if showSecrets {
		return outputs
	}
	redacted := make([]deployment.ResolvedOutput, len(outputs))
	for i, out := range outputs {
		redacted[i] = out.Redact()
	}
	return redacted
}
