// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package broker defines the container runtime surface the reconciler
// drives. Implementations translate these calls into runtime API
// requests; the reconciler never talks to a runtime directly.
package broker

import (
	"context"
	"time"

	"github.com/canonical/berth/core/deployment"
)

// Container is the broker's normalized view of a live container.
type Container struct {
	// ID is the runtime's identifier for the container.
	ID string

	// Name is the container name without any leading separator.
	Name string

	// Image is the image reference the container was created from.
	Image string

	// Command is the effective command line.
	Command []string

	// Env holds the container's environment. It includes variables
	// injected by the image and the runtime, not just declared ones.
	Env map[string]string

	// Ports are the live host to container port bindings.
	Ports []deployment.PortMapping

	// Restart is the configured restart policy.
	Restart deployment.RestartPolicy

	// Running reports whether the container is currently running.
	Running bool

	// StartedAt is when the container last started, if running.
	StartedAt time.Time

	// Labels are the labels set on the container.
	Labels map[string]string
}

// DeploymentLabel is set on every container berth creates, holding the
// owning deployment's name. Destroy refuses to touch containers that
// do not carry it.
const DeploymentLabel = "com.canonical.berth.deployment"

// Broker abstracts the container runtime operations the reconciler
// needs. Lookup returns errors satisfying errors.IsNotFound when the
// runtime has no record of the container.
type Broker interface {
	// EnsureImage makes the image available locally, pulling it if
	// necessary. registryAuth is the encoded credential header for
	// private registries, or empty.
	EnsureImage(ctx context.Context, image string, registryAuth string) error

	// LookupContainer returns the container with the given name.
	LookupContainer(ctx context.Context, name string) (*Container, error)

	// CreateContainer creates, but does not start, a container for
	// spec, labelled as belonging to the named deployment.
	CreateContainer(ctx context.Context, deploymentName string, spec deployment.ContainerSpec) (string, error)

	// StartContainer starts a created or stopped container.
	StartContainer(ctx context.Context, id string) error

	// StopContainer stops a running container, waiting up to timeout
	// for it to exit before killing it.
	StopContainer(ctx context.Context, id string, timeout time.Duration) error

	// RemoveContainer removes a stopped container.
	RemoveContainer(ctx context.Context, id string) error

	// Host returns the address published ports are reachable on.
	Host() string
}
