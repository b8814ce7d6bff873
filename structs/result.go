// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package structs

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Outcome is the result of evaluating one mapping.
type Outcome int

const (
	// Retained means the mapping targets a live function and was left alone.
	Retained Outcome = iota
	// Deleted means the mapping was orphaned and the directory accepted the deletion.
	Deleted
	// ClientRejected means the directory refused the deletion (not found, access denied, throttled).
	ClientRejected
	// InvalidParameters means the deletion request was malformed.
	InvalidParameters
	// UnknownFailure covers every other deletion failure, including a non-success status.
	UnknownFailure
)

func (o Outcome) String() string {
	switch o {
	case Retained:
		return "retained"
	case Deleted:
		return "deleted"
	case ClientRejected:
		return "client-rejected"
	case InvalidParameters:
		return "invalid-parameters"
	case UnknownFailure:
		return "unknown-failure"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Failed reports whether the outcome is a failed deletion attempt.
func (o Outcome) Failed() bool {
	switch o {
	case ClientRejected, InvalidParameters, UnknownFailure:
		return true
	}
	return false
}

// OrphanResult records what happened to a single mapping.
type OrphanResult struct {
	Mapping MappingRecord
	Outcome Outcome
	// Err is the underlying cause when Outcome is a failure.
	Err error
}

// Summary describes a completed reconciliation pass.
type Summary struct {
	Region    string
	Functions int
	Mappings  int
	// Results holds one entry per orphaned mapping, in listing order.
	Results []OrphanResult
}

// Deleted returns the UUIDs of the mappings that were successfully deleted.
func (s Summary) Deleted() []string {
	var ids []string
	for _, r := range s.Results {
		if r.Outcome == Deleted {
			ids = append(ids, r.Mapping.UUID)
		}
	}
	return ids
}

// Failures returns every failed deletion folded into a single error, or nil.
func (s Summary) Failures() error {
	var resultErr error
	for _, r := range s.Results {
		if !r.Outcome.Failed() {
			continue
		}
		err := r.Err
		if err == nil {
			err = errors.New("unsuccessful deletion")
		}
		resultErr = multierror.Append(resultErr, fmt.Errorf("%s: %s: %w", r.Mapping.UUID, r.Outcome, err))
	}
	return resultErr
}

// Clean reports whether no mapping was deleted during the pass.
func (s Summary) Clean() bool {
	return len(s.Deleted()) == 0
}

// Message is the operator facing summary returned to the caller.
func (s Summary) Message() string {
	if s.Clean() {
		return fmt.Sprintf("No orphaned event source mappings found in %s", s.Region)
	}
	return "See logs for deleted event source mappings"
}
