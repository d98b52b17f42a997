package fakes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// STSAPI defines the interface for AWS STS operations
// This matches the subset of methods used by the credential resolvers
type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// SecretsManagerAPI defines the interface for AWS Secrets Manager operations
// This matches the subset of methods used by the secret resolver
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SSMAPI defines the interface for AWS SSM Parameter Store operations
// This matches the subset of methods used by the property loader
type SSMAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// FakeSTSClient is a mock implementation of STSAPI.
// Configure it before use; calls may then arrive from multiple goroutines.
type FakeSTSClient struct {
	// Calls records every AssumeRole input in order, so tests can assert
	// role ARNs, session names and session tags
	Calls []sts.AssumeRoleInput
	// Err, when set, is returned by every AssumeRole call
	Err error
	// Credentials returned on success; a canned set is used when nil
	Credentials *ststypes.Credentials
	// AssumeRoleFunc allows custom behavior for AssumeRole
	AssumeRoleFunc func(ctx context.Context, params *sts.AssumeRoleInput) (*sts.AssumeRoleOutput, error)

	// Thread safety
	mu sync.Mutex
}

// NewFakeSTSClient creates a new mock STS client
func NewFakeSTSClient() *FakeSTSClient {
	return &FakeSTSClient{}
}

// CallCount returns how many times AssumeRole was invoked
func (f *FakeSTSClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// LastCall returns the most recent AssumeRole input, or nil if none
func (f *FakeSTSClient) LastCall() *sts.AssumeRoleInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return nil
	}
	return &f.Calls[len(f.Calls)-1]
}

// AssumeRole mocks the AssumeRole operation
func (f *FakeSTSClient) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, *params)
	f.mu.Unlock()

	if f.AssumeRoleFunc != nil {
		return f.AssumeRoleFunc(ctx, params)
	}

	if f.Err != nil {
		return nil, f.Err
	}

	credentials := f.Credentials
	if credentials == nil {
		expiry := time.Now().Add(15 * time.Minute)
		credentials = &ststypes.Credentials{
			AccessKeyId:     aws.String("AKIDFAKEACCESSKEY"),
			SecretAccessKey: aws.String("fake-secret-access-key"),
			SessionToken:    aws.String("fake-session-token"),
			Expiration:      &expiry,
		}
	}

	sessionName := aws.ToString(params.RoleSessionName)
	return &sts.AssumeRoleOutput{
		Credentials: credentials,
		AssumedRoleUser: &ststypes.AssumedRoleUser{
			Arn:           aws.String(fmt.Sprintf("arn:aws:sts::123456789012:assumed-role/fake-role/%s", sessionName)),
			AssumedRoleId: aws.String("AROFAKEROLEID:" + sessionName),
		},
	}, nil
}

// FakeSecretsManagerClient is a mock implementation of SecretsManagerAPI.
// Configure it before use; calls may then arrive from multiple goroutines.
type FakeSecretsManagerClient struct {
	// Secrets maps secret names to their data
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// CallCount tracks how many times GetSecretValue was invoked
	CallCount int
	// GetSecretValueFunc allows custom behavior for GetSecretValue
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput) (*secretsmanager.GetSecretValueOutput, error)

	// Thread safety
	mu sync.Mutex
}

// SecretData holds the data for a mock secret
type SecretData struct {
	SecretString  *string
	SecretBinary  []byte
	VersionId     *string
	VersionStages []string
	CreatedDate   *time.Time
}

// NewFakeSecretsManagerClient creates a new mock Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretString:  aws.String(value),
		VersionId:     aws.String("v1-abc123"),
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   &now,
	}
}

// AddSecretBinary adds a binary secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretBinary(name string, value []byte) {
	now := time.Now()
	f.Secrets[name] = &SecretData{
		SecretBinary:  value,
		VersionId:     aws.String("v1-abc123"),
		VersionStages: []string{"AWSCURRENT"},
		CreatedDate:   &now,
	}
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetSecretValue mocks the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.mu.Lock()
	f.CallCount++
	f.mu.Unlock()

	if f.GetSecretValueFunc != nil {
		return f.GetSecretValueFunc(ctx, params)
	}

	secretName := aws.ToString(params.SecretId)

	if err, exists := f.Errors[secretName]; exists {
		return nil, err
	}

	data, exists := f.Secrets[secretName]
	if !exists {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", secretName)),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String(fmt.Sprintf("arn:aws:secretsmanager:us-east-1:123456789012:secret:%s", secretName)),
		Name:          params.SecretId,
		SecretString:  data.SecretString,
		SecretBinary:  data.SecretBinary,
		VersionId:     data.VersionId,
		VersionStages: data.VersionStages,
		CreatedDate:   data.CreatedDate,
	}, nil
}

// FakeSSMClient is a mock implementation of SSMAPI
type FakeSSMClient struct {
	// Parameters holds mock parameters in insertion order, so paging
	// across GetParametersByPath calls is deterministic
	Parameters []ssmtypes.Parameter
	// Errors maps requested paths to errors to return
	Errors map[string]error
	// PageSize limits parameters per page; 0 returns everything at once
	PageSize int
	// GetParametersByPathFunc allows custom behavior for GetParametersByPath
	GetParametersByPathFunc func(ctx context.Context, params *ssm.GetParametersByPathInput) (*ssm.GetParametersByPathOutput, error)
}

// NewFakeSSMClient creates a new mock SSM client
func NewFakeSSMClient() *FakeSSMClient {
	return &FakeSSMClient{
		Errors: make(map[string]error),
	}
}

// AddStringParameter adds a String parameter to the mock client
func (f *FakeSSMClient) AddStringParameter(name, value string) {
	f.Parameters = append(f.Parameters, ssmtypes.Parameter{
		Name:    aws.String(name),
		Type:    ssmtypes.ParameterTypeString,
		Value:   aws.String(value),
		Version: 1,
		ARN:     aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
	})
}

// AddSecureStringParameter adds a SecureString parameter to the mock client
func (f *FakeSSMClient) AddSecureStringParameter(name, value string) {
	f.Parameters = append(f.Parameters, ssmtypes.Parameter{
		Name:    aws.String(name),
		Type:    ssmtypes.ParameterTypeSecureString,
		Value:   aws.String(value),
		Version: 1,
		ARN:     aws.String(fmt.Sprintf("arn:aws:ssm:us-east-1:123456789012:parameter%s", name)),
	})
}

// AddError configures the mock to return an error for a specific path
func (f *FakeSSMClient) AddError(path string, err error) {
	f.Errors[path] = err
}

// GetParametersByPath mocks the GetParametersByPath operation, honoring
// PageSize with numeric NextToken paging
func (f *FakeSSMClient) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.GetParametersByPathFunc != nil {
		return f.GetParametersByPathFunc(ctx, params)
	}

	requested := aws.ToString(params.Path)

	if err, exists := f.Errors[requested]; exists {
		return nil, err
	}

	prefix := strings.TrimSuffix(requested, "/") + "/"
	var matched []ssmtypes.Parameter
	for _, parameter := range f.Parameters {
		if strings.HasPrefix(aws.ToString(parameter.Name), prefix) {
			matched = append(matched, parameter)
		}
	}

	start := 0
	if params.NextToken != nil {
		start, _ = strconv.Atoi(aws.ToString(params.NextToken))
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = len(matched)
	}

	end := start + pageSize
	var nextToken *string
	if end >= len(matched) {
		end = len(matched)
	} else {
		nextToken = aws.String(strconv.Itoa(end))
	}
	if start > end {
		start = end
	}

	return &ssm.GetParametersByPathOutput{
		Parameters: matched[start:end],
		NextToken:  nextToken,
	}, nil
}
