// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package status holds the vocabulary used to describe the observed
// state of a deployed container relative to its declaration.
package status

import (
	"time"
)

// Status represents the reconciled state of a single container.
type Status string

// String returns a string representation of the Status.
func (s Status) String() string {
	return string(s)
}

const (
	// Pending means the container has been declared but the runtime
	// has no record of it yet.
	Pending Status = "pending"

	// Running means the container exists and is running with a
	// configuration matching its declaration.
	Running Status = "running"

	// Stopped means the container exists with a matching configuration
	// but is not currently running.
	Stopped Status = "stopped"

	// Drifted means the container exists but its live configuration no
	// longer matches the declaration; converging will replace it.
	Drifted Status = "drifted"

	// Missing means the container was previously applied but the
	// runtime no longer knows about it.
	Missing Status = "missing"

	// Error means the last attempt to converge the container failed
	// and human intervention may be required.
	Error Status = "error"
)

// KnownStatus reports whether s is a value this package defines.
func (s Status) KnownStatus() bool {
	switch s {
	case Pending, Running, Stopped, Drifted, Missing, Error:
		return true
	}
	return false
}

// Info holds a Status with associated detail.
type Info struct {
	Status  Status
	Message string
	Since   *time.Time
}
