// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/hashicorp/go-hclog"
	"github.com/kelseyhightower/envconfig"

	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/client"
	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/structs"
	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/trace"
)

const loggerName = "esm-cleaner"

var errNoRegion = errors.New("no region configured: set REGION_OVERRIDE or AWS_REGION")

// Config holds the configuration from the environment.
type Config struct {
	// AmbientRegion is the region the function is running in. Lambda always sets it.
	AmbientRegion string `envconfig:"AWS_REGION"`

	// RegionOverride selects the region to audit. It takes precedence over everything else.
	RegionOverride string `envconfig:"REGION_OVERRIDE"`

	// RegionOverrideParameter is the path in Parameter Store holding a region override.
	// It is only read when RegionOverride is empty.
	RegionOverrideParameter string `envconfig:"REGION_OVERRIDE_PARAMETER"`

	// LogLevel is the configured logging level.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PageSize is the maximum number of items per page when querying the Lambda API.
	PageSize int `envconfig:"PAGE_SIZE" default:"50"`

	// TraceEnabled turns on timing of each phase of the run.
	TraceEnabled bool `envconfig:"TRACE_ENABLED" default:"false"`

	// XRayEnabled instruments AWS SDK calls with X-Ray subsegments.
	XRayEnabled bool `envconfig:"XRAY_ENABLED" default:"false"`
}

// ParamStore is an interface for reading values from a data store.
type ParamStore interface {
	Get(ctx context.Context, k string) (string, error)
}

// Directory is the inventory of functions and event source mappings for a region.
type Directory interface {
	ListFunctions(context.Context) ([]structs.FunctionIdentity, error)
	ListEventSourceMappings(context.Context) ([]structs.MappingRecord, error)
	// DeleteEventSourceMapping returns the transport status of the deletion.
	DeleteEventSourceMapping(ctx context.Context, uuid string) (int, error)
}

// Environment contains all of the cleaner's dependencies.
type Environment struct {
	Config

	// Region is the resolved region being audited.
	Region string

	// Directory is used to list functions and mappings and to delete mappings.
	Directory Directory

	// Logger is used to log messages.
	Logger hclog.Logger

	// Tracer times the phases of a run. It is nil when tracing is disabled.
	Tracer *trace.Tracer
}

// SetupEnvironment constructs the processing Environment based on environment variables
// and Parameter Store.
func SetupEnvironment(ctx context.Context) (Environment, error) {
	var env Environment

	err := envconfig.Process("", &env.Config)
	if err != nil {
		return env, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	env.Logger = hclog.New(
		&hclog.LoggerOptions{
			Name:  loggerName,
			Level: hclog.LevelFromString(env.LogLevel),
		},
	)
	env.Tracer = trace.New(env.TraceEnabled, trace.HCLog{Logger: env.Logger})

	sdkConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return env, fmt.Errorf("failed to create AWS SDK configuration: %w", err)
	}

	if env.XRayEnabled {
		awsv2.AWSV2Instrumentor(&sdkConfig.APIOptions)
	}

	override, err := regionOverride(ctx, env.Config, client.NewSSM(&sdkConfig))
	if err != nil {
		return env, err
	}

	env.Region, err = ResolveRegion(override, env.AmbientRegion)
	if err != nil {
		return env, err
	}
	sdkConfig.Region = env.Region

	env.Directory = client.NewLambda(&sdkConfig, env.PageSize, env.Logger.Named("lambda"))
	return env, nil
}

// Reconciler returns a Reconciler for the environment's region.
func (env Environment) Reconciler() Reconciler {
	return NewReconciler(env.Directory, env.Region, env.Logger, env.Tracer)
}

// regionOverride returns the explicit region override, reading it from the store when it is
// configured by parameter path.
func regionOverride(ctx context.Context, cfg Config, store ParamStore) (string, error) {
	if cfg.RegionOverride != "" || cfg.RegionOverrideParameter == "" {
		return cfg.RegionOverride, nil
	}

	v, err := store.Get(ctx, cfg.RegionOverrideParameter)
	if err != nil {
		return "", fmt.Errorf("failed to read region override from %s: %w", cfg.RegionOverrideParameter, err)
	}
	return v, nil
}

// ResolveRegion returns the explicit override if set, otherwise the ambient region.
func ResolveRegion(override, ambient string) (string, error) {
	switch {
	case override != "":
		return override, nil
	case ambient != "":
		return ambient, nil
	}
	return "", errNoRegion
}
