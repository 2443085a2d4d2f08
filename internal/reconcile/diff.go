// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconcile

import (
	"fmt"
	"sort"

	"github.com/juju/collections/set"

	"github.com/canonical/berth/core/deployment"
	"github.com/canonical/berth/internal/broker"
)

// diffContainer compares a live container against its declaration and
// returns the reasons it no longer matches, empty when converged.
// Environment comparison only considers declared keys: the image and
// the runtime inject variables of their own (PATH and friends) that
// are not drift.
func diffContainer(spec deployment.ContainerSpec, current *broker.Container) []string {
	var drift []string

	wantImage, err := spec.NormalizedImage()
	if err != nil {
		// Validate catches this long before planning.
		wantImage = spec.Image
	}
	haveImage, err := deployment.NormalizeImage(current.Image)
	if err != nil {
		haveImage = current.Image
	}
	if wantImage != haveImage {
		drift = append(drift, fmt.Sprintf("image %q != %q", haveImage, wantImage))
	}

	if len(spec.Command) > 0 && !equalStrings(spec.Command, current.Command) {
		drift = append(drift, "command changed")
	}

	var missing []string
	for key, want := range spec.Env {
		if have, ok := current.Env[key]; !ok || have != want {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		drift = append(drift, fmt.Sprintf("environment changed: %v", missing))
	}

	if !equalPorts(spec.Ports, current.Ports) {
		drift = append(drift, "port mappings changed")
	}

	if spec.Restart != current.Restart {
		drift = append(drift, fmt.Sprintf("restart policy %q != %q", current.Restart, spec.Restart))
	}
	return drift
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalPorts(want, have []deployment.PortMapping) bool {
	if len(want) != len(have) {
		return false
	}
	wantSet := set.NewStrings()
	for _, p := range want {
		wantSet.Add(p.String())
	}
	for _, p := range have {
		if !wantSet.Contains(p.String()) {
			return false
		}
	}
	return true
}
