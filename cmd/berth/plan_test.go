// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/berth/core/deployment"
)

type planSuite struct {
	baseSuite
}

var _ = gc.Suite(&planSuite{})

func (s *planSuite) TestPlanMissingContainer(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, &planCommand{newBroker: s.newBroker}, path)
	c.Assert(err, jc.ErrorIsNil)
	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s)deployment: object-store\nsteps:\n.*`)
	c.Check(stdout, gc.Matches, `(?s).*action: pull-image.*`)
	c.Check(stdout, gc.Matches, `(?s).*action: create-container.*`)
	c.Check(stdout, gc.Matches, `(?s).*action: start-container.*`)
}

func (s *planSuite) TestPlanConverged(c *gc.C) {
	d, err := deployment.Parse([]byte(minioDeployment))
	c.Assert(err, jc.ErrorIsNil)
	s.broker.seed(d, "minio", true)

	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, &planCommand{newBroker: s.newBroker}, path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches,
		`deployment "object-store" is already converged\n`)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, `(?s).*action: no-change.*`)
}

func (s *planSuite) TestPlanJSON(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, &planCommand{newBroker: s.newBroker}, path, "--format", "json")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, `(?s)\{"deployment":"object-store".*"action":"pull-image".*`)
}

func (s *planSuite) TestPlanClosesBroker(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	_, err := cmdtesting.RunCommand(c, &planCommand{newBroker: s.newBroker}, path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.broker.closed, jc.IsTrue)
}
