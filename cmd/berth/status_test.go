// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/store"
)

type statusSuite struct {
	baseSuite
}

var _ = gc.Suite(&statusSuite{})

func (s *statusSuite) newCommand() *statusCommand {
	return &statusCommand{newBroker: s.newBroker, store: s.store}
}

func (s *statusSuite) TestStatusPending(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)
	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s).*name: minio.*`)
	c.Check(stdout, gc.Matches, `(?s).*status: pending.*`)
	c.Check(stdout, gc.Matches, `(?s).*message: not yet applied.*`)
}

func (s *statusSuite) TestStatusMissing(c *gc.C) {
	// Applied earlier, but the runtime has since lost the container.
	s.store.deployments["object-store"] = store.DeploymentDetails{
		ContainerIDs: map[string]string{"minio": "id-minio"},
	}

	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)
	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s).*status: missing.*`)
	c.Check(stdout, gc.Matches, `(?s).*message: no such container.*`)
}

func (s *statusSuite) TestStatusRunning(c *gc.C) {
	d, err := deployment.Parse([]byte(minioDeployment))
	c.Assert(err, jc.ErrorIsNil)
	s.broker.seed(d, "minio", true)

	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)
	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s).*id: id-minio.*`)
	c.Check(stdout, gc.Matches, `(?s).*status: running.*`)
}

func (s *statusSuite) TestStatusStopped(c *gc.C) {
	d, err := deployment.Parse([]byte(minioDeployment))
	c.Assert(err, jc.ErrorIsNil)
	s.broker.seed(d, "minio", false)

	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, `(?s).*status: stopped.*`)
}

func (s *statusSuite) TestStatusNoArguments(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, s.newCommand())
	c.Assert(err, gc.ErrorMatches, "no deployment file specified")
}
