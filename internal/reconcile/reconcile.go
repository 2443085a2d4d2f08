// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/core/status"
	"github.com/canonical/berth/internal/broker"
)

var logger = loggo.GetLogger("berth.reconcile")

// Config configures a Reconciler.
type Config struct {
	// Broker is the runtime the reconciler converges against.
	Broker broker.Broker

	// RegistryAuth is the encoded credential header passed to image
	// pulls, empty for public registries.
	RegistryAuth string

	// StopTimeout bounds how long a container is given to exit
	// cleanly before being killed during recreate or destroy.
	StopTimeout time.Duration
}

const defaultStopTimeout = 30 * time.Second

// Reconciler converges deployments against a container runtime.
type Reconciler struct {
	broker       broker.Broker
	registryAuth string
	stopTimeout  time.Duration
}

// NewReconciler returns a Reconciler using cfg.
func NewReconciler(cfg Config) (*Reconciler, error) {
	if cfg.Broker == nil {
		return nil, errors.NotValidf("nil Broker")
	}
	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Reconciler{
		broker:       cfg.Broker,
		registryAuth: cfg.RegistryAuth,
		stopTimeout:  stopTimeout,
	}, nil
}

// Plan inspects the runtime and returns the steps needed to converge d.
// It makes no changes.
func (r *Reconciler) Plan(ctx context.Context, d *deployment.Deployment) (*Plan, error) {
	plan := &Plan{Deployment: d.Name}
	for _, name := range d.SortedContainerNames() {
		spec := d.Containers[name]
		current, err := r.broker.LookupContainer(ctx, name)
		if errors.IsNotFound(err) {
			plan.Steps = append(plan.Steps,
				Step{Kind: PullImage, Container: name},
				Step{Kind: CreateContainer, Container: name},
				Step{Kind: StartContainer, Container: name},
			)
			continue
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		if drift := diffContainer(spec, current); len(drift) > 0 {
			plan.Steps = append(plan.Steps,
				Step{Kind: PullImage, Container: name},
				Step{Kind: RecreateContainer, Container: name, Reason: strings.Join(drift, "; ")},
			)
			continue
		}
		if !current.Running {
			plan.Steps = append(plan.Steps, Step{Kind: StartContainer, Container: name, Reason: "container stopped"})
			continue
		}
		plan.Steps = append(plan.Steps, Step{Kind: NoChange, Container: name})
	}
	return plan, nil
}

// Result reports what an Apply did.
type Result struct {
	// Plan is the plan that was executed.
	Plan *Plan

	// ContainerIDs maps container names to their runtime IDs after
	// convergence.
	ContainerIDs map[string]string

	// Outputs are the deployment outputs resolved against the
	// converged runtime state.
	Outputs []deployment.ResolvedOutput
}

// Apply converges the runtime to d and resolves its outputs. The first
// failing step aborts the apply; steps already executed are not rolled
// back, matching the runtime's own behaviour.
func (r *Reconciler) Apply(ctx context.Context, d *deployment.Deployment) (*Result, error) {
	plan, err := r.Plan(ctx, d)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, step := range plan.Steps {
		if step.Kind == NoChange {
			continue
		}
		logger.Infof("%s", step)
		if err := r.run(ctx, d, step); err != nil {
			return nil, errors.Annotatef(err, "step %q for container %q", step.Kind, step.Container)
		}
	}

	result := &Result{
		Plan:         plan,
		ContainerIDs: make(map[string]string),
	}
	observed := make(map[string]*broker.Container)
	for _, name := range d.SortedContainerNames() {
		current, err := r.broker.LookupContainer(ctx, name)
		if err != nil {
			return nil, errors.Annotatef(err, "inspecting container %q after apply", name)
		}
		observed[name] = current
		result.ContainerIDs[name] = current.ID
	}
	outputs, err := d.ResolveOutputs(observedResolveContext(d, observed, r.broker.Host()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	result.Outputs = outputs
	return result, nil
}

func (r *Reconciler) run(ctx context.Context, d *deployment.Deployment, step Step) error {
	spec := d.Containers[step.Container]
	switch step.Kind {
	case PullImage:
		image, err := spec.NormalizedImage()
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(r.broker.EnsureImage(ctx, image, r.registryAuth))
	case CreateContainer:
		_, err := r.broker.CreateContainer(ctx, d.Name, spec)
		return errors.Trace(err)
	case StartContainer:
		return errors.Trace(r.broker.StartContainer(ctx, spec.Name))
	case RecreateContainer:
		return errors.Trace(r.replace(ctx, d.Name, spec))
	}
	return errors.NotSupportedf("step %q", step.Kind)
}

func (r *Reconciler) replace(ctx context.Context, deploymentName string, spec deployment.ContainerSpec) error {
	current, err := r.broker.LookupContainer(ctx, spec.Name)
	if err != nil {
		return errors.Trace(err)
	}
	if current.Running {
		if err := r.broker.StopContainer(ctx, current.ID, r.stopTimeout); err != nil {
			return errors.Trace(err)
		}
	}
	if err := r.broker.RemoveContainer(ctx, current.ID); err != nil {
		return errors.Trace(err)
	}
	if _, err := r.broker.CreateContainer(ctx, deploymentName, spec); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(r.broker.StartContainer(ctx, spec.Name))
}

// PlanDestroy inspects the runtime and returns the steps needed to
// tear down the named containers: StopContainer for running ones,
// RemoveContainer for everything still present. Containers that are
// already gone contribute no steps; containers not labelled as
// belonging to deploymentName are refused.
func (r *Reconciler) PlanDestroy(ctx context.Context, deploymentName string, containers []string) (*Plan, error) {
	plan := &Plan{Deployment: deploymentName}
	for _, name := range containers {
		current, err := r.broker.LookupContainer(ctx, name)
		if errors.IsNotFound(err) {
			logger.Debugf("container %q already gone", name)
			continue
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		if owner := current.Labels[broker.DeploymentLabel]; owner != deploymentName {
			return nil, errors.Errorf("container %q does not belong to deployment %q", name, deploymentName)
		}
		if current.Running {
			plan.Steps = append(plan.Steps, Step{Kind: StopContainer, Container: name})
		}
		plan.Steps = append(plan.Steps, Step{Kind: RemoveContainer, Container: name})
	}
	return plan, nil
}

// Destroy executes a destroy plan for the named containers. A
// container that disappears between planning and execution is not an
// error.
func (r *Reconciler) Destroy(ctx context.Context, deploymentName string, containers []string) error {
	plan, err := r.PlanDestroy(ctx, deploymentName, containers)
	if err != nil {
		return errors.Trace(err)
	}
	for _, step := range plan.Steps {
		logger.Infof("%s", step)
		switch step.Kind {
		case StopContainer:
			err = r.broker.StopContainer(ctx, step.Container, r.stopTimeout)
		case RemoveContainer:
			err = r.broker.RemoveContainer(ctx, step.Container)
		default:
			err = errors.NotSupportedf("step %q", step.Kind)
		}
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return errors.Annotatef(err, "step %q for container %q", step.Kind, step.Container)
		}
	}
	return nil
}

// ContainerStatus is the live status of one declared container.
type ContainerStatus struct {
	Name string      `yaml:"name" json:"name"`
	ID   string      `yaml:"id,omitempty" json:"id,omitempty"`
	Info status.Info `yaml:"status" json:"status"`
}

// Status reports the live status of every container d declares.
// recorded maps container names to the IDs the last apply created,
// distinguishing never-applied containers (pending) from ones the
// runtime has since lost (missing); pass nil when nothing was applied.
// A lookup failure is reported as that container's status rather than
// failing the whole report.
func (r *Reconciler) Status(ctx context.Context, d *deployment.Deployment, recorded map[string]string) ([]ContainerStatus, error) {
	var results []ContainerStatus
	for _, name := range d.SortedContainerNames() {
		spec := d.Containers[name]
		current, err := r.broker.LookupContainer(ctx, name)
		if errors.IsNotFound(err) {
			info := status.Info{Status: status.Pending, Message: "not yet applied"}
			if _, ok := recorded[name]; ok {
				info = status.Info{Status: status.Missing, Message: "no such container"}
			}
			results = append(results, ContainerStatus{Name: name, Info: info})
			continue
		}
		if err != nil {
			results = append(results, ContainerStatus{
				Name: name,
				Info: status.Info{Status: status.Error, Message: err.Error()},
			})
			continue
		}
		results = append(results, ContainerStatus{
			Name: name,
			ID:   current.ID,
			Info: containerStatus(spec, current),
		})
	}
	return results, nil
}

func containerStatus(spec deployment.ContainerSpec, current *broker.Container) status.Info {
	if drift := diffContainer(spec, current); len(drift) > 0 {
		return status.Info{Status: status.Drifted, Message: strings.Join(drift, "; ")}
	}
	if !current.Running {
		return status.Info{Status: status.Stopped}
	}
	since := current.StartedAt
	return status.Info{Status: status.Running, Since: &since}
}

// observedResolveContext resolves output placeholders against what the
// runtime reports, falling back to the declaration for values the
// runtime does not echo back.
func observedResolveContext(d *deployment.Deployment, observed map[string]*broker.Container, host string) deployment.ResolveContext {
	desired := d.DesiredResolveContext()
	return deployment.ResolveContext{
		Host: host,
		HostPort: func(container string, containerPort int, proto string) (int, bool) {
			if current, ok := observed[container]; ok {
				for _, p := range current.Ports {
					if p.ContainerPort == containerPort && p.Protocol == proto {
						return p.HostPort, true
					}
				}
			}
			return desired.HostPort(container, containerPort, proto)
		},
		EnvValue: func(container, key string) (string, bool) {
			if current, ok := observed[container]; ok {
				if value, ok := current.Env[key]; ok {
					return value, true
				}
			}
			return desired.EnvValue(container, key)
		},
	}
}
