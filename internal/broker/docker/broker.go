// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package docker implements the container broker on top of the Docker
// Engine API.
package docker

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/broker"
)

var logger = loggo.GetLogger("berth.broker.docker")

// apiClient is implemented by *client.Client; it narrows the engine
// client to the calls the broker issues, so tests can substitute a
// fake engine.
type apiClient interface {
	ImageInspectWithRaw(ctx context.Context, imageID string) (dockerImageInspect, []byte, error)
	ImagePull(ctx context.Context, refStr string, options image.PullOptions) (io.ReadCloser, error)
	ContainerInspect(ctx context.Context, containerID string) (dockerContainerJSON, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// Config configures a Broker.
type Config struct {
	// Host is the address published ports are reachable on,
	// defaulting to localhost for a local engine.
	Host string

	// PullAttempts bounds image pull retries on transient errors.
	PullAttempts int

	// PullDelay is the delay between pull attempts.
	PullDelay time.Duration

	// Clock is used for retry timing.
	Clock clock.Clock
}

const (
	defaultPullAttempts = 3
	defaultPullDelay    = 5 * time.Second
)

// Broker talks to a local Docker Engine.
type Broker struct {
	api  apiClient
	host string

	pullAttempts int
	pullDelay    time.Duration
	clock        clock.Clock
}

var _ broker.Broker = (*Broker)(nil)

// NewBroker connects to the engine named by the usual DOCKER_HOST
// family of environment variables.
func NewBroker(cfg Config) (*Broker, error) {
	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Annotate(err, "connecting to container runtime")
	}
	return newBroker(api, cfg), nil
}

func newBroker(api apiClient, cfg Config) *Broker {
	b := &Broker{
		api:          api,
		host:         cfg.Host,
		pullAttempts: cfg.PullAttempts,
		pullDelay:    cfg.PullDelay,
		clock:        cfg.Clock,
	}
	if b.host == "" {
		b.host = deployment.DefaultHost
	}
	if b.pullAttempts <= 0 {
		b.pullAttempts = defaultPullAttempts
	}
	if b.pullDelay <= 0 {
		b.pullDelay = defaultPullDelay
	}
	if b.clock == nil {
		b.clock = clock.WallClock
	}
	return b
}

// Close releases the engine connection.
func (b *Broker) Close() error {
	return b.api.Close()
}

// Host implements broker.Broker.
func (b *Broker) Host() string {
	return b.host
}

// EnsureImage implements broker.Broker. Present images are left alone;
// pulls are retried on transient engine errors.
func (b *Broker) EnsureImage(ctx context.Context, imageRef string, registryAuth string) error {
	if _, _, err := b.api.ImageInspectWithRaw(ctx, imageRef); err == nil {
		logger.Debugf("image %q already present", imageRef)
		return nil
	} else if !errdefs.IsNotFound(err) {
		return errors.Annotatef(err, "inspecting image %q", imageRef)
	}

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return b.pullImage(ctx, imageRef, registryAuth)
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Warningf("pull of %q failed (attempt %d): %v", imageRef, attempt, err)
		},
		Attempts: b.pullAttempts,
		Delay:    b.pullDelay,
		Clock:    b.clock,
	})
	return errors.Annotatef(err, "pulling image %q", imageRef)
}

func (b *Broker) pullImage(ctx context.Context, imageRef string, registryAuth string) error {
	logger.Infof("pulling image %q", imageRef)
	stream, err := b.api.ImagePull(ctx, imageRef, image.PullOptions{
		RegistryAuth: registryAuth,
	})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = stream.Close() }()
	// The pull only completes once the progress stream has been
	// consumed; a failure partway through surfaces as an error
	// message in the stream.
	if err := jsonmessage.DisplayJSONMessagesStream(stream, io.Discard, 0, false, nil); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// LookupContainer implements broker.Broker.
func (b *Broker) LookupContainer(ctx context.Context, name string) (*broker.Container, error) {
	info, err := b.api.ContainerInspect(ctx, name)
	if errdefs.IsNotFound(err) {
		return nil, errors.NotFoundf("container %q", name)
	}
	if err != nil {
		return nil, errors.Annotatef(err, "inspecting container %q", name)
	}
	return containerFromInspect(info), nil
}

// CreateContainer implements broker.Broker.
func (b *Broker) CreateContainer(ctx context.Context, deploymentName string, spec deployment.ContainerSpec) (string, error) {
	config, hostConfig, err := engineConfigs(deploymentName, spec)
	if err != nil {
		return "", errors.Trace(err)
	}
	created, err := b.api.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", errors.Annotatef(err, "creating container %q", spec.Name)
	}
	logger.Debugf("created container %q (%s)", spec.Name, created.ID)
	return created.ID, nil
}

// StartContainer implements broker.Broker.
func (b *Broker) StartContainer(ctx context.Context, id string) error {
	if err := b.api.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return errors.Annotatef(err, "starting container %q", id)
	}
	return nil
}

// StopContainer implements broker.Broker.
func (b *Broker) StopContainer(ctx context.Context, id string, timeout time.Duration) error {
	// The engine takes whole seconds; zero means kill immediately, so
	// a sub-second timeout still grants one second of grace.
	seconds := int(timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	err := b.api.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds})
	if errdefs.IsNotFound(err) {
		return errors.NotFoundf("container %q", id)
	}
	return errors.Annotatef(err, "stopping container %q", id)
}

// RemoveContainer implements broker.Broker.
func (b *Broker) RemoveContainer(ctx context.Context, id string) error {
	err := b.api.ContainerRemove(ctx, id, container.RemoveOptions{})
	if errdefs.IsNotFound(err) {
		return errors.NotFoundf("container %q", id)
	}
	return errors.Annotatef(err, "removing container %q", id)
}
