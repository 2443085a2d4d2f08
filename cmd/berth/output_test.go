// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"time"

	"github.com/juju/cmd/v4/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/store"
)

type outputSuite struct {
	baseSuite
}

var _ = gc.Suite(&outputSuite{})

func (s *outputSuite) SetUpTest(c *gc.C) {
	s.baseSuite.SetUpTest(c)
	s.store.deployments["object-store"] = store.DeploymentDetails{
		AppliedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ContainerIDs: map[string]string{"minio": "id-minio"},
		Outputs: []deployment.ResolvedOutput{
			{Name: "api-url", Value: "http://localhost:9000"},
			{Name: "secret-key", Value: "minioadmin", Sensitive: true},
		},
	}
}

func (s *outputSuite) TestAllOutputs(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store}, "object-store")
	c.Assert(err, jc.ErrorIsNil)
	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s).*name: api-url.*value: http://localhost:9000.*`)
	c.Check(stdout, gc.Matches, `(?s).*value: '\*{8}'.*`)
	c.Check(stdout, gc.Not(gc.Matches), `(?s).*minioadmin.*`)
}

func (s *outputSuite) TestAllOutputsShowSecrets(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store},
		"object-store", "--show-secrets")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, `(?s).*value: minioadmin.*`)
}

func (s *outputSuite) TestSingleOutput(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store},
		"object-store", "api-url")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Equals, "http://localhost:9000\n")
}

func (s *outputSuite) TestSingleSensitiveOutput(c *gc.C) {
	ctx, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store},
		"object-store", "secret-key", "--show-secrets")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Equals, "minioadmin\n")
}

func (s *outputSuite) TestUnknownOutput(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store},
		"object-store", "nope")
	c.Assert(err, gc.ErrorMatches, `output "nope" of deployment "object-store" not found`)
}

func (s *outputSuite) TestUnknownDeployment(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store}, "nope")
	c.Assert(err, gc.ErrorMatches, `deployment nope not found`)
}

func (s *outputSuite) TestNoArguments(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, &outputCommand{store: s.store})
	c.Assert(err, gc.ErrorMatches, "no deployment name specified")
}
