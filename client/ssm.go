// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// GetParameterAPIClient is the subset of the SSM API used to read parameters.
type GetParameterAPIClient interface {
	GetParameter(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMClient provides a read-only client for AWS Systems Manager Parameter Store.
type SSMClient struct {
	client GetParameterAPIClient
}

// NewSSM creates an instance of the SSMClient from the given AWS SDK config.
func NewSSM(cfg *aws.Config) *SSMClient {
	return &SSMClient{client: ssm.NewFromConfig(*cfg)}
}

// NewSSMFromAPI creates an SSMClient wrapping an existing API client.
func NewSSMFromAPI(api GetParameterAPIClient) *SSMClient {
	return &SSMClient{client: api}
}

// Get retrieves the value for the given key from Parameter Store.
// SecureString values are returned decrypted.
func (c *SSMClient) Get(ctx context.Context, key string) (string, error) {
	paramValue, err := c.client.GetParameter(
		ctx,
		&ssm.GetParameterInput{
			Name:           &key,
			WithDecryption: aws.Bool(true),
		})

	if err != nil {
		return "", err
	}

	if paramValue.Parameter == nil || paramValue.Parameter.Value == nil {
		return "", fmt.Errorf("parameter store value does not exist for %s", key)
	}
	return *paramValue.Parameter.Value, nil
}
