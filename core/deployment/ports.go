// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package deployment

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// PortMapping binds a host port to a container port. The zero HostIP
// means all host interfaces.
type PortMapping struct {
	HostIP        string
	HostPort      int
	ContainerPort int
	Protocol      string
}

// ParsePortMapping parses the runtime's short port mapping syntax:
//
//	"9000"                  same port on host and container
//	"9000:9001"             host:container
//	"127.0.0.1:9000:9001"   ip:host:container
//
// with an optional "/tcp" or "/udp" suffix, defaulting to tcp.
func ParsePortMapping(value string) (PortMapping, error) {
	proto := "tcp"
	spec := value
	if i := strings.LastIndex(spec, "/"); i >= 0 {
		proto = strings.ToLower(spec[i+1:])
		spec = spec[:i]
	}
	if proto != "tcp" && proto != "udp" {
		return PortMapping{}, errors.NotValidf("port mapping %q: protocol %q", value, proto)
	}

	parts := strings.Split(spec, ":")
	mapping := PortMapping{Protocol: proto}
	var err error
	switch len(parts) {
	case 1:
		if mapping.ContainerPort, err = parsePort(parts[0]); err != nil {
			return PortMapping{}, errors.Annotatef(err, "port mapping %q", value)
		}
		mapping.HostPort = mapping.ContainerPort
	case 2:
		if mapping.HostPort, err = parsePort(parts[0]); err != nil {
			return PortMapping{}, errors.Annotatef(err, "port mapping %q", value)
		}
		if mapping.ContainerPort, err = parsePort(parts[1]); err != nil {
			return PortMapping{}, errors.Annotatef(err, "port mapping %q", value)
		}
	case 3:
		if net.ParseIP(parts[0]) == nil {
			return PortMapping{}, errors.NotValidf("port mapping %q: host IP %q", value, parts[0])
		}
		mapping.HostIP = parts[0]
		if mapping.HostPort, err = parsePort(parts[1]); err != nil {
			return PortMapping{}, errors.Annotatef(err, "port mapping %q", value)
		}
		if mapping.ContainerPort, err = parsePort(parts[2]); err != nil {
			return PortMapping{}, errors.Annotatef(err, "port mapping %q", value)
		}
	default:
		return PortMapping{}, errors.NotValidf("port mapping %q", value)
	}
	return mapping, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NotValidf("port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, errors.NotValidf("port %d out of range", port)
	}
	return port, nil
}

// Validate checks the mapping's ports and protocol.
func (p PortMapping) Validate() error {
	if p.HostPort < 1 || p.HostPort > 65535 {
		return errors.NotValidf("host port %d", p.HostPort)
	}
	if p.ContainerPort < 1 || p.ContainerPort > 65535 {
		return errors.NotValidf("container port %d", p.ContainerPort)
	}
	if p.Protocol != "tcp" && p.Protocol != "udp" {
		return errors.NotValidf("protocol %q", p.Protocol)
	}
	if p.HostIP != "" && net.ParseIP(p.HostIP) == nil {
		return errors.NotValidf("host IP %q", p.HostIP)
	}
	return nil
}

// String renders the mapping in the short syntax accepted by
// ParsePortMapping.
func (p PortMapping) String() string {
	s := fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, p.Protocol)
	if p.HostIP != "" {
		s = p.HostIP + ":" + s
	}
	return s
}
