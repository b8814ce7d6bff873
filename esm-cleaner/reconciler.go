// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/structs"
	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/trace"
)

// ErrDirectoryUnavailable is returned when either inventory can't be listed in full.
var ErrDirectoryUnavailable = errors.New("function directory unavailable")

// invalidParameterValueCode is returned by Lambda when the service rejects a malformed request.
const invalidParameterValueCode = "InvalidParameterValueException"

// Reconciler deletes event source mappings whose target function no longer exists.
// It holds no state between runs.
type Reconciler struct {
	Directory Directory
	Region    string
	Logger    hclog.Logger
	Tracer    *trace.Tracer
}

// NewReconciler returns a Reconciler. A nil logger discards all notices.
func NewReconciler(dir Directory, region string, logger hclog.Logger, tracer *trace.Tracer) Reconciler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return Reconciler{Directory: dir, Region: region, Logger: logger, Tracer: tracer}
}

// ListLiveFunctions returns the set of every function in the region.
func (r Reconciler) ListLiveFunctions(ctx context.Context) (structs.LiveFunctionSet, error) {
	timer := r.Tracer.Start("list functions")

	ids, err := r.Directory.ListFunctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing functions in %s: %w", ErrDirectoryUnavailable, r.Region, err)
	}
	live := structs.NewLiveFunctionSet(ids...)

	timer.Stop("count=", len(live))
	return live, nil
}

// ListMappings returns every event source mapping in the region.
func (r Reconciler) ListMappings(ctx context.Context) ([]structs.MappingRecord, error) {
	timer := r.Tracer.Start("list event source mappings")

	mappings, err := r.Directory.ListEventSourceMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing event source mappings in %s: %w", ErrDirectoryUnavailable, r.Region, err)
	}

	timer.Stop("count=", len(mappings))
	return mappings, nil
}

// FindOrphans returns the mappings whose target is not in live, in their original order.
func FindOrphans(live structs.LiveFunctionSet, mappings []structs.MappingRecord) []structs.MappingRecord {
	var orphans []structs.MappingRecord
	for _, m := range mappings {
		if !live.Contains(m.Target) {
			orphans = append(orphans, m)
		}
	}
	return orphans
}

// DeleteMapping deletes a single mapping. Failures are classified and logged, never returned.
func (r Reconciler) DeleteMapping(ctx context.Context, m structs.MappingRecord) structs.OrphanResult {
	result := structs.OrphanResult{Mapping: m, Outcome: structs.Deleted}

	status, err := r.Directory.DeleteEventSourceMapping(ctx, m.UUID)
	switch {
	case err != nil:
		result.Outcome = ClassifyDeleteError(err)
		result.Err = err
	case status < 200 || status > 299:
		result.Outcome = structs.UnknownFailure
		result.Err = fmt.Errorf("unexpected response status %d", status)
	}

	if result.Outcome == structs.Deleted {
		r.Logger.Info("Deleted event source mapping",
			"uuid", m.UUID, "function", m.Target, "event_source", m.EventSourceArn, "state", m.State)
	} else {
		r.Logger.Warn("Failed to delete event source mapping",
			"uuid", m.UUID, "function", m.Target, "state", m.State, "outcome", result.Outcome, "error", result.Err)
	}
	return result
}

// ClassifyDeleteError maps an error from a deletion request to a failure outcome.
func ClassifyDeleteError(err error) structs.Outcome {
	var (
		paramsErr    smithy.InvalidParamsError
		paramsErrPtr *smithy.InvalidParamsError
		paramErr     smithy.InvalidParamError
		serErr       *smithy.SerializationError
		apiErr       smithy.APIError
	)

	switch {
	case errors.As(err, &paramsErr), errors.As(err, &paramsErrPtr), errors.As(err, &paramErr),
		errors.As(err, &serErr):
		return structs.InvalidParameters
	case errors.As(err, &apiErr) && apiErr.ErrorCode() == invalidParameterValueCode:
		return structs.InvalidParameters
	case errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient:
		return structs.ClientRejected
	}
	return structs.UnknownFailure
}

// Run performs a full pass: list both inventories, then delete every orphan in order.
// Only listing failures are returned as errors.
func (r Reconciler) Run(ctx context.Context) (structs.Summary, error) {
	summary := structs.Summary{Region: r.Region}

	live, err := r.ListLiveFunctions(ctx)
	if err != nil {
		return summary, err
	}

	mappings, err := r.ListMappings(ctx)
	if err != nil {
		return summary, err
	}
	summary.Functions = len(live)
	summary.Mappings = len(mappings)

	orphans := FindOrphans(live, mappings)
	r.Logger.Info("Audited event source mappings", "region", r.Region,
		"functions", summary.Functions, "mappings", summary.Mappings, "orphans", len(orphans))

	timer := r.Tracer.Start("delete orphaned mappings")
	for _, m := range orphans {
		summary.Results = append(summary.Results, r.DeleteMapping(ctx, m))
	}
	timer.Stop("count=", len(orphans))

	return summary, nil
}
