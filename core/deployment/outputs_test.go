// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployment

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"
)

type outputsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&outputsSuite{})

func (s *outputsSuite) TestResolveAgainstDeclaration(c *gc.C) {
	d := validDeployment()
	resolved, err := d.ResolveOutputs(d.DesiredResolveContext())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(resolved, jc.DeepEquals, []ResolvedOutput{
		{Name: "api-url", Value: "http://localhost:9000"},
		{Name: "secret-key", Value: "minioadmin", Sensitive: true},
	})
}

func (s *outputsSuite) TestResolveAgainstObservedState(c *gc.C) {
	d := validDeployment()
	rc := ResolveContext{
		Host: "10.0.0.7",
		HostPort: func(container string, containerPort int, proto string) (int, bool) {
			c.Check(container, gc.Equals, "minio")
			c.Check(proto, gc.Equals, "tcp")
			// The runtime remapped the API port.
			if containerPort == 9000 {
				return 19000, true
			}
			return 0, false
		},
		EnvValue: func(container, key string) (string, bool) {
			return "observed-secret", true
		},
	}
	resolved, err := d.ResolveOutputs(rc)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(resolved[0].Value, gc.Equals, "http://10.0.0.7:19000")
	c.Check(resolved[1].Value, gc.Equals, "observed-secret")
}

func (s *outputsSuite) TestResolveLiteralValue(c *gc.C) {
	d := validDeployment()
	d.Outputs = []Output{{Name: "note", Value: "no placeholders here"}}
	resolved, err := d.ResolveOutputs(d.DesiredResolveContext())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(resolved[0].Value, gc.Equals, "no placeholders here")
}

func (s *outputsSuite) TestResolveUnknownPlaceholderKind(c *gc.C) {
	d := validDeployment()
	d.Outputs = []Output{{Name: "bad", Value: "${volume:minio:data}"}}
	_, err := d.ResolveOutputs(d.DesiredResolveContext())
	c.Assert(err, gc.ErrorMatches, `output "bad": placeholder "\$\{volume:minio:data\}" not valid`)
}

func (s *outputsSuite) TestResolveUDPPort(c *gc.C) {
	d := validDeployment()
	spec := d.Containers["minio"]
	spec.Ports = append(spec.Ports, PortMapping{HostPort: 514, ContainerPort: 514, Protocol: "udp"})
	d.Containers["minio"] = spec
	d.Outputs = []Output{{Name: "syslog", Value: "${host}:${port:minio:514/udp}"}}

	resolved, err := d.ResolveOutputs(d.DesiredResolveContext())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(resolved[0].Value, gc.Equals, "localhost:514")
}

func (s *outputsSuite) TestRedact(c *gc.C) {
	secret := ResolvedOutput{Name: "key", Value: "hunter2", Sensitive: true}
	c.Check(secret.Redact().Value, gc.Equals, Redacted)

	public := ResolvedOutput{Name: "url", Value: "http://localhost:9000"}
	c.Check(public.Redact().Value, gc.Equals, "http://localhost:9000")
}
