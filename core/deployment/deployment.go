// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package deployment defines the declarative model a berth deployment
// file describes: a named set of containers with fixed images, port
// mappings, environment and commands, plus the output values published
// once the deployment has converged. The model carries no behaviour of
// its own; the runtime broker and the reconciler consume it verbatim.
package deployment

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/distribution/reference"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// RestartPolicy mirrors the runtime's container restart policies.
type RestartPolicy string

const (
	// RestartNever leaves a stopped container stopped.
	RestartNever RestartPolicy = "no"
	// RestartAlways restarts the container whenever it stops.
	RestartAlways RestartPolicy = "always"
	// RestartOnFailure restarts only on a non-zero exit.
	RestartOnFailure RestartPolicy = "on-failure"
	// RestartUnlessStopped restarts unless explicitly stopped.
	RestartUnlessStopped RestartPolicy = "unless-stopped"
)

// KnownRestartPolicy reports whether p names a supported policy.
func (p RestartPolicy) KnownRestartPolicy() bool {
	switch p {
	case RestartNever, RestartAlways, RestartOnFailure, RestartUnlessStopped:
		return true
	}
	return false
}

// Deployment is the desired end state described by one deployment file.
type Deployment struct {
	// Name identifies the deployment in the local store and in
	// container labels.
	Name string

	// Containers holds the declared containers, keyed by container name.
	Containers map[string]ContainerSpec

	// Outputs are the values published after an apply, sorted by name.
	Outputs []Output
}

// ContainerSpec declares a single container.
type ContainerSpec struct {
	// Name is the container name as known to the runtime.
	Name string

	// Image is the normalized image reference to pull and run.
	Image string

	// Command overrides the image entrypoint arguments when non-empty.
	Command []string

	// Env holds the environment passed to the container verbatim.
	// Values may carry credentials; they are never logged above
	// debug level.
	Env map[string]string

	// Ports are the host to container port mappings.
	Ports []PortMapping

	// Restart is the runtime restart policy, defaulting to "no".
	Restart RestartPolicy
}

// Output declares a value published once the deployment converges.
type Output struct {
	// Name identifies the output.
	Name string

	// Value is the raw output value; it may contain ${...}
	// placeholders resolved against the deployment (see outputs.go).
	Value string

	// Sensitive marks values that must be redacted in human-readable
	// output unless secrets were explicitly requested.
	Sensitive bool
}

// SortedContainerNames returns the container names in lexical order,
// which is also the order the reconciler processes them in.
func (d *Deployment) SortedContainerNames() []string {
	names := make([]string, 0, len(d.Containers))
	for name := range d.Containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validName constrains deployment and container names to what the
// runtime accepts for container names.
var validName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// IsValidName reports whether name can be used for a deployment or a
// container.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// Validate checks the deployment for internal consistency. A
// deployment returned by Parse has already been validated.
func (d *Deployment) Validate() error {
	if !IsValidName(d.Name) {
		return errors.NotValidf("deployment name %q", d.Name)
	}
	if len(d.Containers) == 0 {
		return errors.NotValidf("deployment %q without containers", d.Name)
	}
	boundPorts := set.NewStrings()
	for _, name := range d.SortedContainerNames() {
		spec := d.Containers[name]
		if err := spec.Validate(); err != nil {
			return errors.Annotatef(err, "container %q", name)
		}
		for _, p := range spec.Ports {
			key := fmt.Sprintf("%s:%d/%s", p.HostIP, p.HostPort, p.Protocol)
			if boundPorts.Contains(key) {
				return errors.NotValidf("host port %d/%s bound twice", p.HostPort, p.Protocol)
			}
			boundPorts.Add(key)
		}
	}
	outputNames := set.NewStrings()
	for _, out := range d.Outputs {
		if out.Name == "" {
			return errors.NotValidf("output with empty name")
		}
		if outputNames.Contains(out.Name) {
			return errors.NotValidf("duplicate output %q", out.Name)
		}
		outputNames.Add(out.Name)
		if err := d.validateOutputValue(out); err != nil {
			return errors.Annotatef(err, "output %q", out.Name)
		}
	}
	return nil
}

// Validate checks a single container declaration.
func (s *ContainerSpec) Validate() error {
	if !IsValidName(s.Name) {
		return errors.NotValidf("container name %q", s.Name)
	}
	if s.Image == "" {
		return errors.NotValidf("missing image")
	}
	if _, err := reference.ParseNormalizedNamed(s.Image); err != nil {
		return errors.NewNotValid(err, fmt.Sprintf("image reference %q", s.Image))
	}
	for key := range s.Env {
		if key == "" {
			return errors.NotValidf("environment variable with empty name")
		}
	}
	if !s.Restart.KnownRestartPolicy() {
		return errors.NotValidf("restart policy %q", s.Restart)
	}
	seen := set.NewStrings()
	for _, p := range s.Ports {
		if err := p.Validate(); err != nil {
			return errors.Trace(err)
		}
		key := fmt.Sprintf("%d/%s", p.ContainerPort, p.Protocol)
		if seen.Contains(key) {
			return errors.NotValidf("container port %s mapped twice", key)
		}
		seen.Add(key)
	}
	return nil
}

// NormalizeImage returns an image reference in its fully qualified,
// tagged form, e.g. "minio/minio" becomes
// "docker.io/minio/minio:latest". Two references naming the same image
// normalize to the same string.
func NormalizeImage(image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", errors.NewNotValid(err, fmt.Sprintf("image reference %q", image))
	}
	return reference.TagNameOnly(named).String(), nil
}

// NormalizedImage returns the container's image reference in its fully
// qualified, tagged form.
func (s *ContainerSpec) NormalizedImage() (string, error) {
	return NormalizeImage(s.Image)
}

// PortFor returns the mapping whose container port and protocol match,
// if any.
func (s *ContainerSpec) PortFor(containerPort int, proto string) (PortMapping, bool) {
	for _, p := range s.Ports {
		if p.ContainerPort == containerPort && p.Protocol == proto {
			return p, true
		}
	}
	return PortMapping{}, false
}
