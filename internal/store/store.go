// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package store persists what berth last applied: per deployment, the
// source checksum, container IDs and resolved outputs. The store is a
// local record only; the container runtime remains the source of truth
// for planning. Sensitive output values are kept here verbatim, which
// is why the files are written user-readable only.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/mutex/v2"
	"gopkg.in/yaml.v2"

	"github.com/canonical/berth/core/deployment"
)

var logger = loggo.GetLogger("berth.store")

// DeploymentDetails records one applied deployment.
type DeploymentDetails struct {
	// SourcePath is the deployment file the apply used.
	SourcePath string `yaml:"source-path,omitempty"`

	// SourceSHA256 is the checksum of the deployment file contents at
	// apply time, used to report when the file changed under us.
	SourceSHA256 string `yaml:"source-sha256,omitempty"`

	// AppliedAt is when the last successful apply finished.
	AppliedAt time.Time `yaml:"applied-at"`

	// ContainerIDs maps container names to runtime IDs.
	ContainerIDs map[string]string `yaml:"container-ids"`

	// Outputs are the resolved outputs of the last apply, including
	// sensitive values.
	Outputs []deployment.ResolvedOutput `yaml:"outputs,omitempty"`
}

// ContainerNames returns the recorded container names in map order.
func (d *DeploymentDetails) ContainerNames() []string {
	names := make([]string, 0, len(d.ContainerIDs))
	for name := range d.ContainerIDs {
		names = append(names, name)
	}
	return names
}

// Store provides access to the local deployment records.
type Store interface {
	// AllDeployments returns every recorded deployment.
	AllDeployments() (map[string]DeploymentDetails, error)

	// DeploymentByName returns the named record, or an error
	// satisfying errors.IsNotFound.
	DeploymentByName(name string) (*DeploymentDetails, error)

	// UpdateDeployment adds or replaces the named record.
	UpdateDeployment(name string, details DeploymentDetails) error

	// RemoveDeployment deletes the named record. Removing an unknown
	// deployment is not an error.
	RemoveDeployment(name string) error
}

// NewFileStore returns a filesystem-based store that manages files in
// BerthDataHome().
func NewFileStore() Store {
	return &fileStore{dataDir: BerthDataHome(), clock: clock.WallClock}
}

type fileStore struct {
	dataDir string
	clock   clock.Clock
}

// Updates and reads both take the machine-wide mutex: concurrent berth
// invocations must not interleave read-modify-write cycles.
func (s *fileStore) acquireLock() (mutex.Releaser, error) {
	spec := mutex.Spec{
		Name:    "berth-store",
		Clock:   s.clock,
		Delay:   250 * time.Millisecond,
		Timeout: 5 * time.Second,
	}
	releaser, err := mutex.Acquire(spec)
	if err != nil {
		return nil, errors.Annotate(err, "acquiring store lock")
	}
	return releaser, nil
}

// AllDeployments implements Store.
func (s *fileStore) AllDeployments() (map[string]DeploymentDetails, error) {
	releaser, err := s.acquireLock()
	if err != nil {
		return nil, errors.Annotate(err, "cannot read deployments")
	}
	defer releaser.Release()
	return ReadDeploymentsFile(DeploymentsPath(s.dataDir))
}

// DeploymentByName implements Store.
func (s *fileStore) DeploymentByName(name string) (*DeploymentDetails, error) {
	all, err := s.AllDeployments()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if details, ok := all[name]; ok {
		return &details, nil
	}
	return nil, errors.NotFoundf("deployment %s", name)
}

// UpdateDeployment implements Store.
func (s *fileStore) UpdateDeployment(name string, details DeploymentDetails) error {
	if !deployment.IsValidName(name) {
		return errors.NotValidf("deployment name %q", name)
	}
	releaser, err := s.acquireLock()
	if err != nil {
		return errors.Annotatef(err, "cannot update deployment %v", name)
	}
	defer releaser.Release()

	all, err := ReadDeploymentsFile(DeploymentsPath(s.dataDir))
	if err != nil {
		return errors.Annotate(err, "cannot read deployments")
	}
	if all == nil {
		all = make(map[string]DeploymentDetails)
	}
	all[name] = details
	return WriteDeploymentsFile(s.dataDir, all)
}

// RemoveDeployment implements Store.
func (s *fileStore) RemoveDeployment(name string) error {
	releaser, err := s.acquireLock()
	if err != nil {
		return errors.Annotatef(err, "cannot remove deployment %v", name)
	}
	defer releaser.Release()

	all, err := ReadDeploymentsFile(DeploymentsPath(s.dataDir))
	if err != nil {
		return errors.Annotate(err, "cannot read deployments")
	}
	if _, ok := all[name]; !ok {
		logger.Debugf("deployment %q not recorded, nothing to remove", name)
		return nil
	}
	delete(all, name)
	return WriteDeploymentsFile(s.dataDir, all)
}

type deploymentsFile struct {
	Deployments map[string]DeploymentDetails `yaml:"deployments"`
}

// ReadDeploymentsFile loads the deployment records at path. A missing
// file is an empty store.
func ReadDeploymentsFile(path string) (map[string]DeploymentDetails, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]DeploymentDetails), nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	var content deploymentsFile
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, errors.Annotatef(err, "cannot unmarshal deployments file %q", path)
	}
	if content.Deployments == nil {
		content.Deployments = make(map[string]DeploymentDetails)
	}
	return content.Deployments, nil
}

// WriteDeploymentsFile marshals and writes the records to dataDir,
// creating it as needed. The file may hold credentials, hence 0600.
func WriteDeploymentsFile(dataDir string, deployments map[string]DeploymentDetails) error {
	data, err := yaml.Marshal(deploymentsFile{Deployments: deployments})
	if err != nil {
		return errors.Annotate(err, "cannot marshal deployments")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(DeploymentsPath(dataDir), data, 0600))
}

// SourceChecksum returns the checksum recorded for a deployment file's
// contents.
func SourceChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
