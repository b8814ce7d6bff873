// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/arn"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/terraform-aws-lambda-esm-cleaner/structs"
)

// LambdaAPIClient is the subset of the Lambda API used to audit event source mappings.
type LambdaAPIClient interface {
	lambda.ListFunctionsAPIClient
	lambda.ListEventSourceMappingsAPIClient
	DeleteEventSourceMapping(context.Context, *lambda.DeleteEventSourceMappingInput, ...func(*lambda.Options)) (*lambda.DeleteEventSourceMappingOutput, error)
}

var _ LambdaAPIClient = (*lambda.Client)(nil)

// Lambda is a client for interfacing with the AWS Lambda API.
type Lambda struct {
	lambdaClient LambdaAPIClient
	pageSize     int
	logger       hclog.Logger
}

// NewLambda returns a Lambda client built from the given SDK config.
func NewLambda(cfg *aws.Config, pageSize int, logger hclog.Logger) *Lambda {
	return NewLambdaFromAPI(lambda.NewFromConfig(*cfg), pageSize, logger)
}

// NewLambdaFromAPI returns a Lambda client wrapping an existing API client.
func NewLambdaFromAPI(api LambdaAPIClient, pageSize int, logger hclog.Logger) *Lambda {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Lambda{lambdaClient: api, pageSize: pageSize, logger: logger}
}

func (c *Lambda) maxItems() *int32 {
	if c.pageSize <= 0 {
		return nil
	}
	return aws.Int32(int32(c.pageSize))
}

// ListFunctions returns the ARN of every function in the region.
func (c *Lambda) ListFunctions(ctx context.Context) ([]structs.FunctionIdentity, error) {
	params := &lambda.ListFunctionsInput{MaxItems: c.maxItems()}
	paginator := lambda.NewListFunctionsPaginator(c.lambdaClient, params)

	var ids []structs.FunctionIdentity
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, fn := range output.Functions {
			if fn.FunctionArn == nil {
				continue
			}
			ids = append(ids, structs.FunctionIdentity(*fn.FunctionArn))
		}
	}

	return ids, nil
}

// ListEventSourceMappings returns every event source mapping in the region. Mapping targets are
// normalized to the unqualified function ARN so that alias and version bindings match the
// function returned by ListFunctions.
func (c *Lambda) ListEventSourceMappings(ctx context.Context) ([]structs.MappingRecord, error) {
	params := &lambda.ListEventSourceMappingsInput{MaxItems: c.maxItems()}
	paginator := lambda.NewListEventSourceMappingsPaginator(c.lambdaClient, params)

	var mappings []structs.MappingRecord
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, esm := range output.EventSourceMappings {
			fnArn := aws.ToString(esm.FunctionArn)
			uuid := aws.ToString(esm.UUID)
			if fnArn == "" || uuid == "" {
				c.logger.Debug("skipping incomplete event source mapping", "uuid", uuid, "function", fnArn)
				continue
			}

			mappings = append(mappings, structs.MappingRecord{
				Target:         UnqualifiedFunctionARN(fnArn),
				UUID:           uuid,
				EventSourceArn: aws.ToString(esm.EventSourceArn),
				State:          aws.ToString(esm.State),
			})
		}
	}

	return mappings, nil
}

// DeleteEventSourceMapping deletes the mapping with the given UUID. It returns the HTTP status
// code of the response, or 0 when the status is unavailable.
func (c *Lambda) DeleteEventSourceMapping(ctx context.Context, uuid string) (int, error) {
	output, err := c.lambdaClient.DeleteEventSourceMapping(ctx, &lambda.DeleteEventSourceMappingInput{
		UUID: &uuid,
	})
	if err != nil {
		return 0, err
	}

	return responseStatus(output.ResultMetadata), nil
}

func responseStatus(md middleware.Metadata) int {
	if resp, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

// UnqualifiedFunctionARN strips a version or alias qualifier from a Lambda function ARN.
// Values that aren't function ARNs are returned unchanged.
func UnqualifiedFunctionARN(s string) structs.FunctionIdentity {
	parsed, err := arn.Parse(s)
	if err != nil || parsed.Service != "lambda" {
		return structs.FunctionIdentity(s)
	}

	// function:<name>[:<qualifier>]
	parts := strings.Split(parsed.Resource, ":")
	if len(parts) != 3 || parts[0] != "function" {
		return structs.FunctionIdentity(s)
	}
	parsed.Resource = fmt.Sprintf("%s:%s", parts[0], parts[1])
	return structs.FunctionIdentity(parsed.String())
}
