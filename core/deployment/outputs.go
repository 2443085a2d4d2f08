// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployment

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Redacted replaces sensitive output values in human-readable output.
const Redacted = "********"

// DefaultHost is substituted for ${host} when the runtime does not
// report a specific address.
const DefaultHost = "localhost"

// outputPlaceholder matches ${host}, ${port:<container>:<port>} and
// ${env:<container>:<KEY>}.
var outputPlaceholder = regexp.MustCompile(`\$\{([a-z]+)(?::([^}:]+):([^}]+))?\}`)

// ResolvedOutput is an output with its placeholders substituted.
type ResolvedOutput struct {
	Name      string `yaml:"name" json:"name"`
	Value     string `yaml:"value" json:"value"`
	Sensitive bool   `yaml:"sensitive" json:"sensitive"`
}

// Redact returns the output with its value replaced when sensitive.
func (o ResolvedOutput) Redact() ResolvedOutput {
	if o.Sensitive {
		o.Value = Redacted
	}
	return o
}

// ResolveContext supplies the live values placeholders resolve to.
// Plan time uses the declared state (see DesiredResolveContext); apply
// time substitutes values observed from the runtime.
type ResolveContext struct {
	// Host is the address substituted for ${host}.
	Host string

	// HostPort reports the host port bound for a container port.
	HostPort func(container string, containerPort int, proto string) (int, bool)

	// EnvValue reports a container's environment value.
	EnvValue func(container, key string) (string, bool)
}

// DesiredResolveContext resolves placeholders against the declaration
// itself, before anything has been applied.
func (d *Deployment) DesiredResolveContext() ResolveContext {
	return ResolveContext{
		Host: DefaultHost,
		HostPort: func(container string, containerPort int, proto string) (int, bool) {
			spec, ok := d.Containers[container]
			if !ok {
				return 0, false
			}
			mapping, ok := spec.PortFor(containerPort, proto)
			if !ok {
				return 0, false
			}
			return mapping.HostPort, true
		},
		EnvValue: func(container, key string) (string, bool) {
			spec, ok := d.Containers[container]
			if !ok {
				return "", false
			}
			value, ok := spec.Env[key]
			return value, ok
		},
	}
}

// ResolveOutputs substitutes every output's placeholders using rc.
// Outputs are returned in declaration (name) order.
func (d *Deployment) ResolveOutputs(rc ResolveContext) ([]ResolvedOutput, error) {
	resolved := make([]ResolvedOutput, 0, len(d.Outputs))
	for _, out := range d.Outputs {
		value, err := resolveValue(out.Value, rc)
		if err != nil {
			return nil, errors.Annotatef(err, "output %q", out.Name)
		}
		resolved = append(resolved, ResolvedOutput{
			Name:      out.Name,
			Value:     value,
			Sensitive: out.Sensitive,
		})
	}
	return resolved, nil
}

func resolveValue(raw string, rc ResolveContext) (string, error) {
	var resolveErr error
	value := outputPlaceholder.ReplaceAllStringFunc(raw, func(match string) string {
		groups := outputPlaceholder.FindStringSubmatch(match)
		kind, container, arg := groups[1], groups[2], groups[3]
		switch kind {
		case "host":
			if rc.Host == "" {
				return DefaultHost
			}
			return rc.Host
		case "port":
			port, proto := splitPortArg(arg)
			containerPort, err := strconv.Atoi(port)
			if err != nil {
				resolveErr = errors.NotValidf("placeholder %q", match)
				return match
			}
			hostPort, ok := rc.HostPort(container, containerPort, proto)
			if !ok {
				resolveErr = errors.NotFoundf("port %s of container %q", arg, container)
				return match
			}
			return strconv.Itoa(hostPort)
		case "env":
			value, ok := rc.EnvValue(container, arg)
			if !ok {
				resolveErr = errors.NotFoundf("environment variable %q of container %q", arg, container)
				return match
			}
			return value
		}
		resolveErr = errors.NotValidf("placeholder %q", match)
		return match
	})
	if resolveErr != nil {
		return "", errors.Trace(resolveErr)
	}
	return value, nil
}

func splitPortArg(arg string) (string, string) {
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, "tcp"
}

// validateOutputValue checks that every placeholder in an output value
// refers to a declared container, port mapping or environment variable.
func (d *Deployment) validateOutputValue(out Output) error {
	_, err := resolveValue(out.Value, d.DesiredResolveContext())
	return errors.Trace(err)
}
