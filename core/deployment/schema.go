// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployment

import (
	"os"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/utils/v4"
	"gopkg.in/yaml.v2"
)

const (
	nameKey       = "name"
	containersKey = "containers"
	outputsKey    = "outputs"

	imageKey     = "image"
	commandKey   = "command"
	envKey       = "env"
	portsKey     = "ports"
	restartKey   = "restart"
	valueKey     = "value"
	sensitiveKey = "sensitive"
)

var containerChecker = schema.StrictFieldMap(
	schema.Fields{
		imageKey:   schema.String(),
		commandKey: schema.List(schema.String()),
		envKey:     schema.StringMap(schema.String()),
		portsKey:   schema.List(schema.String()),
		restartKey: schema.String(),
	},
	schema.Defaults{
		commandKey: schema.Omit,
		envKey:     schema.Omit,
		portsKey:   schema.Omit,
		restartKey: string(RestartNever),
	},
)

var outputChecker = schema.StrictFieldMap(
	schema.Fields{
		valueKey:     schema.String(),
		sensitiveKey: schema.Bool(),
	},
	schema.Defaults{
		sensitiveKey: false,
	},
)

var deploymentChecker = schema.StrictFieldMap(
	schema.Fields{
		nameKey:       schema.String(),
		containersKey: schema.StringMap(containerChecker),
		outputsKey:    schema.StringMap(outputChecker),
	},
	schema.Defaults{
		outputsKey: schema.Omit,
	},
)

// Parse decodes and validates a deployment file. The returned
// deployment has defaults applied and has passed Validate.
func Parse(data []byte) (*Deployment, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "parsing deployment file")
	}
	conformed, err := utils.ConformYAML(raw)
	if err != nil {
		return nil, errors.Annotate(err, "parsing deployment file")
	}
	coerced, err := deploymentChecker.Coerce(conformed, nil)
	if err != nil {
		return nil, errors.Annotate(err, "invalid deployment")
	}
	attrs := coerced.(map[string]interface{})

	d := &Deployment{
		Name:       attrs[nameKey].(string),
		Containers: make(map[string]ContainerSpec),
	}
	for name, value := range attrs[containersKey].(map[string]interface{}) {
		spec, err := containerSpecFromAttrs(name, value.(map[string]interface{}))
		if err != nil {
			return nil, errors.Annotatef(err, "container %q", name)
		}
		d.Containers[name] = spec
	}
	if rawOutputs, ok := attrs[outputsKey].(map[string]interface{}); ok {
		for name, value := range rawOutputs {
			out := value.(map[string]interface{})
			d.Outputs = append(d.Outputs, Output{
				Name:      name,
				Value:     out[valueKey].(string),
				Sensitive: out[sensitiveKey].(bool),
			})
		}
		sort.Slice(d.Outputs, func(i, j int) bool {
			return d.Outputs[i].Name < d.Outputs[j].Name
		})
	}

	if err := d.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return d, nil
}

// ReadFile reads and parses the deployment file at path.
func ReadFile(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading deployment file")
	}
	d, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "deployment file %q", path)
	}
	return d, nil
}

func containerSpecFromAttrs(name string, attrs map[string]interface{}) (ContainerSpec, error) {
	spec := ContainerSpec{
		Name:    name,
		Image:   attrs[imageKey].(string),
		Restart: RestartPolicy(attrs[restartKey].(string)),
	}
	if rawCommand, ok := attrs[commandKey].([]interface{}); ok {
		for _, arg := range rawCommand {
			spec.Command = append(spec.Command, arg.(string))
		}
	}
	if rawEnv, ok := attrs[envKey].(map[string]interface{}); ok {
		spec.Env = make(map[string]string, len(rawEnv))
		for key, value := range rawEnv {
			spec.Env[key] = value.(string)
		}
	}
	if rawPorts, ok := attrs[portsKey].([]interface{}); ok {
		for _, port := range rawPorts {
			mapping, err := ParsePortMapping(port.(string))
			if err != nil {
				return ContainerSpec{}, errors.Trace(err)
			}
			spec.Ports = append(spec.Ports, mapping)
		}
	}
	return spec, nil
}
