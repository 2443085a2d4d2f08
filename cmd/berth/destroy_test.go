// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"strings"

	"github.com/juju/cmd/v4/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/broker"
	"github.com/canonical/berth/internal/store"
)

type destroySuite struct {
	baseSuite
}

var _ = gc.Suite(&destroySuite{})

func (s *destroySuite) newCommand() *destroyCommand {
	return &destroyCommand{newBroker: s.newBroker, store: s.store}
}

func (s *destroySuite) seedApplied(c *gc.C) *deployment.Deployment {
	d, err := deployment.Parse([]byte(minioDeployment))
	c.Assert(err, jc.ErrorIsNil)
	s.broker.seed(d, "minio", true)
	s.store.deployments[d.Name] = store.DeploymentDetails{
		ContainerIDs: map[string]string{"minio": "id-minio"},
	}
	return d
}

func (s *destroySuite) TestDestroyByFile(c *gc.C) {
	s.seedApplied(c)
	path := s.writeDeployment(c, minioDeployment)

	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path, "-y")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches, `deployment "object-store" destroyed\n`)
	c.Check(s.broker.containers, gc.HasLen, 0)
	c.Check(s.store.deployments, gc.HasLen, 0)
}

func (s *destroySuite) TestDestroyByName(c *gc.C) {
	s.seedApplied(c)

	_, err := cmdtesting.RunCommand(c, s.newCommand(), "object-store", "-y")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.broker.containers, gc.HasLen, 0)
	c.Check(s.store.deployments, gc.HasLen, 0)
}

func (s *destroySuite) TestDestroyUnknownName(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, s.newCommand(), "nope", "-y")
	c.Assert(err, gc.ErrorMatches, `deployment nope not found`)
}

func (s *destroySuite) TestDestroyConfirmed(c *gc.C) {
	s.seedApplied(c)

	ctx := cmdtesting.Context(c)
	ctx.Stdin = strings.NewReader("y\n")
	com := s.newCommand()
	err := cmdtesting.InitCommand(com, []string{"object-store"})
	c.Assert(err, jc.ErrorIsNil)
	err = com.Run(ctx)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches, `(?s).*Continue \[y/N\]\? .*`)
	c.Check(s.broker.containers, gc.HasLen, 0)
}

func (s *destroySuite) TestDestroyAborted(c *gc.C) {
	s.seedApplied(c)

	ctx := cmdtesting.Context(c)
	ctx.Stdin = strings.NewReader("n\n")
	com := s.newCommand()
	err := cmdtesting.InitCommand(com, []string{"object-store"})
	c.Assert(err, jc.ErrorIsNil)
	err = com.Run(ctx)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches, `(?s).*destroy aborted.*`)
	c.Check(s.broker.containers, gc.HasLen, 1)
	c.Check(s.store.deployments, gc.HasLen, 1)
}

func (s *destroySuite) TestDestroyRefusesForeignContainer(c *gc.C) {
	d := s.seedApplied(c)
	s.broker.containers["minio"].Labels = map[string]string{
		broker.DeploymentLabel: "someone-else",
	}

	_, err := cmdtesting.RunCommand(c, s.newCommand(), d.Name, "-y")
	c.Assert(err, gc.ErrorMatches,
		`container "minio" does not belong to deployment "object-store"`)
	c.Check(s.broker.containers, gc.HasLen, 1)
}

func (s *destroySuite) TestDestroyContainerAlreadyGone(c *gc.C) {
	s.store.deployments["object-store"] = store.DeploymentDetails{
		ContainerIDs: map[string]string{"minio": "id-minio"},
	}

	_, err := cmdtesting.RunCommand(c, s.newCommand(), "object-store", "-y")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.store.deployments, gc.HasLen, 0)
}
