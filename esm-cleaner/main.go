// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mitchellh/mapstructure"
)

func main() {
	lambda.Start(HandleRequest)
}

// Response is returned to the invoker of the function.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// ScheduledEvent holds the fields of an EventBridge scheduled event that are logged.
type ScheduledEvent struct {
	ID         string `mapstructure:"id"`
	Source     string `mapstructure:"source"`
	DetailType string `mapstructure:"detail-type"`
	Time       string `mapstructure:"time"`
}

func HandleRequest(ctx context.Context, rawEvent map[string]interface{}) (Response, error) {
	env, err := SetupEnvironment(ctx)
	if err != nil {
		// We can't use the logger because of the error.
		fmt.Fprintln(os.Stderr, "Error setting up the environment:", err)
		return Response{}, fmt.Errorf("setting up environment: %w", err)
	}

	return handle(ctx, env, rawEvent)
}

func handle(ctx context.Context, env Environment, rawEvent map[string]interface{}) (Response, error) {
	var event ScheduledEvent
	if err := mapstructure.Decode(rawEvent, &event); err != nil {
		env.Logger.Debug("Unable to decode invocation event", "error", err)
	}
	env.Logger.Info("Received event", "source", event.Source, "detail-type", event.DetailType,
		"id", event.ID, "region", env.Region, "tracing", env.Tracer.Enabled())

	summary, err := env.Reconciler().Run(ctx)
	if err != nil {
		env.Logger.Error("Error auditing event source mappings", "error", err)
		return Response{}, err
	}

	if err := summary.Failures(); err != nil {
		env.Logger.Warn("Some orphaned event source mappings were not deleted", "error", err)
	}
	env.Logger.Info("Finished auditing event source mappings", "region", summary.Region,
		"deleted", len(summary.Deleted()))

	return Response{StatusCode: http.StatusOK, Body: summary.Message()}, nil
}
