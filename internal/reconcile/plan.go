// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package reconcile diffs a deployment declaration against the state
// the container runtime reports and issues the broker calls needed to
// converge. The runtime, not the local store, is the source of truth
// for what currently exists.
package reconcile

import (
	"fmt"
)

// StepKind names one kind of convergence action.
type StepKind string

const (
	// PullImage ensures the container's image is available locally.
	PullImage StepKind = "pull-image"
	// CreateContainer creates the container from its declaration.
	CreateContainer StepKind = "create-container"
	// StartContainer starts an existing stopped container.
	StartContainer StepKind = "start-container"
	// RecreateContainer replaces a container whose live configuration
	// drifted from its declaration.
	RecreateContainer StepKind = "recreate-container"
	// StopContainer stops a running container; emitted by destroy
	// plans.
	StopContainer StepKind = "stop-container"
	// RemoveContainer removes a stopped container; emitted by destroy
	// plans.
	RemoveContainer StepKind = "remove-container"
	// NoChange records that a container already matches its
	// declaration.
	NoChange StepKind = "no-change"
)

// Step is a single planned convergence action for one container.
type Step struct {
	Kind      StepKind `yaml:"action" json:"action"`
	Container string   `yaml:"container" json:"container"`
	// Reason is a human-readable explanation, e.g. the drift that
	// forces a recreate.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// String renders the step in plan output form.
func (s Step) String() string {
	if s.Reason == "" {
		return fmt.Sprintf("%s %s", s.Kind, s.Container)
	}
	return fmt.Sprintf("%s %s (%s)", s.Kind, s.Container, s.Reason)
}

// Plan is the ordered set of steps that converges one deployment.
type Plan struct {
	// Deployment is the name of the planned deployment.
	Deployment string `yaml:"deployment" json:"deployment"`

	// Steps are executed in order by Apply.
	Steps []Step `yaml:"steps" json:"steps"`
}

// Changes reports whether applying the plan would alter the runtime.
func (p *Plan) Changes() bool {
	for _, step := range p.Steps {
		if step.Kind != NoChange {
			return true
		}
	}
	return false
}
