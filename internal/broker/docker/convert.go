// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package docker

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/go-connections/nat"
	"github.com/juju/errors"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/broker"
)

// Aliases keep the apiClient interface signature-compatible with
// *client.Client without importing the engine types everywhere.
type (
	dockerImageInspect  = types.ImageInspect
	dockerContainerJSON = types.ContainerJSON
)

// engineConfigs renders a container declaration into the engine's
// create request payloads.
func engineConfigs(deploymentName string, spec deployment.ContainerSpec) (*container.Config, *container.HostConfig, error) {
	exposed, bindings, err := portConfigs(spec.Ports)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	config := &container.Config{
		Image:        spec.Image,
		Cmd:          strslice.StrSlice(spec.Command),
		Env:          envSlice(spec.Env),
		ExposedPorts: exposed,
		Labels: map[string]string{
			broker.DeploymentLabel: deploymentName,
		},
	}
	hostConfig := &container.HostConfig{
		PortBindings: bindings,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyMode(spec.Restart),
		},
	}
	return config, hostConfig, nil
}

func portConfigs(mappings []deployment.PortMapping) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, m := range mappings {
		port, err := nat.NewPort(m.Protocol, strconv.Itoa(m.ContainerPort))
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			HostIP:   m.HostIP,
			HostPort: strconv.Itoa(m.HostPort),
		})
	}
	return exposed, bindings, nil
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	vars := make([]string, 0, len(env))
	for key, value := range env {
		vars = append(vars, key+"="+value)
	}
	sort.Strings(vars)
	return vars
}

func envMap(env []string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	vars := make(map[string]string, len(env))
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		vars[key] = value
	}
	return vars
}

// containerFromInspect normalizes an engine inspect response.
func containerFromInspect(info dockerContainerJSON) *broker.Container {
	result := &broker.Container{
		ID:   info.ID,
		Name: strings.TrimPrefix(info.Name, "/"),
	}
	if info.Config != nil {
		result.Image = info.Config.Image
		result.Command = []string(info.Config.Cmd)
		result.Env = envMap(info.Config.Env)
		result.Labels = info.Config.Labels
	}
	if info.HostConfig != nil {
		result.Ports = portMappings(info.HostConfig.PortBindings)
		result.Restart = restartPolicy(info.HostConfig.RestartPolicy)
	}
	if info.State != nil {
		result.Running = info.State.Running
		if started, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			result.StartedAt = started
		}
	}
	return result
}

func portMappings(bindings nat.PortMap) []deployment.PortMapping {
	var mappings []deployment.PortMapping
	for port, hostBindings := range bindings {
		for _, binding := range hostBindings {
			hostPort, err := strconv.Atoi(binding.HostPort)
			if err != nil {
				// Engine-assigned ephemeral bindings have no fixed
				// host port until the container runs.
				continue
			}
			mappings = append(mappings, deployment.PortMapping{
				HostIP:        binding.HostIP,
				HostPort:      hostPort,
				ContainerPort: port.Int(),
				Protocol:      port.Proto(),
			})
		}
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].String() < mappings[j].String()
	})
	return mappings
}

func restartPolicy(policy container.RestartPolicy) deployment.RestartPolicy {
	if policy.Name == "" {
		return deployment.RestartNever
	}
	return deployment.RestartPolicy(policy.Name)
}
