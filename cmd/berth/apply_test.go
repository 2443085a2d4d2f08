// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/cmd/v4/cmdtesting"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/canonical/berth/core/deployment"
)

type applySuite struct {
	baseSuite
}

var _ = gc.Suite(&applySuite{})

func (s *applySuite) newCommand() *applyCommand {
	return &applyCommand{newBroker: s.newBroker, store: s.store}
}

func (s *applySuite) TestApplyFromScratch(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)

	c.Check(cmdtesting.Stderr(ctx), gc.Matches, `deployment "object-store" converged\n`)
	current := s.broker.containers["minio"]
	c.Assert(current, gc.NotNil)
	c.Check(current.Running, jc.IsTrue)

	stdout := cmdtesting.Stdout(ctx)
	c.Check(stdout, gc.Matches, `(?s).*value: http://localhost:9000.*`)
	c.Check(stdout, gc.Matches, `(?s).*value: '\*{8}'.*`)
	c.Check(stdout, gc.Not(gc.Matches), `(?s).*minioadmin.*`)
}

func (s *applySuite) TestApplyShowSecrets(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path, "--show-secrets")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stdout(ctx), gc.Matches, `(?s).*value: minioadmin.*`)
}

func (s *applySuite) TestApplyRecordsDeployment(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	_, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)

	details, err := s.store.DeploymentByName("object-store")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(details.ContainerIDs, jc.DeepEquals, map[string]string{"minio": "id-minio"})
	c.Check(details.SourceSHA256, gc.Matches, `[0-9a-f]{64}`)
	c.Check(details.AppliedAt.IsZero(), jc.IsFalse)

	// Recorded outputs keep sensitive values verbatim.
	values := map[string]string{}
	for _, out := range details.Outputs {
		values[out.Name] = out.Value
	}
	c.Check(values["secret-key"], gc.Equals, "minioadmin")
}

func (s *applySuite) TestApplyIdempotent(c *gc.C) {
	d, err := deployment.Parse([]byte(minioDeployment))
	c.Assert(err, jc.ErrorIsNil)
	s.broker.seed(d, "minio", true)

	path := s.writeDeployment(c, minioDeployment)
	ctx, err := cmdtesting.RunCommand(c, s.newCommand(), path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(cmdtesting.Stderr(ctx), gc.Matches,
		`deployment "object-store" already converged, nothing to do\n`)
}

func (s *applySuite) TestApplyBadRegistryAuth(c *gc.C) {
	path := s.writeDeployment(c, minioDeployment)
	_, err := cmdtesting.RunCommand(c, s.newCommand(), path,
		"--registry-auth", "repository: ")
	c.Assert(err, gc.ErrorMatches, `parsing registry credentials: .*`)
}

func (s *applySuite) TestApplyMissingFile(c *gc.C) {
	_, err := cmdtesting.RunCommand(c, s.newCommand(), "no-such.yaml")
	c.Assert(err, gc.ErrorMatches, `reading deployment file: .*`)
}
