// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"

	"github.com/canonical/berth/internal/broker"
	dockerbroker "github.com/canonical/berth/internal/broker/docker"
	"github.com/canonical/berth/internal/docker"
)

// runtimeBroker is a broker that owns a runtime connection.
type runtimeBroker interface {
	broker.Broker
	Close() error
}

// newRuntimeBroker connects to the engine configured by the DOCKER_HOST
// family of environment variables. Commands hold this as a field so
// tests can substitute a fake.
func newRuntimeBroker() (runtimeBroker, error) {
	b, err := dockerbroker.NewBroker(dockerbroker.Config{})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return b, nil
}

// registryAuthHeader turns a --registry-auth value (inline YAML or a
// file path) into the encoded header image pulls need. Empty input
// means an anonymous pull.
func registryAuthHeader(contentOrPath string) (string, error) {
	details, err := docker.NewImageRepoDetails(contentOrPath)
	if err != nil {
		return "", errors.Annotate(err, "parsing registry credentials")
	}
	if details == nil {
		return "", nil
	}
	header, err := details.RegistryAuth()
	if err != nil {
		return "", errors.Trace(err)
	}
	return header, nil
}
