// Package fakes provides test doubles for the AWS client interfaces dbmux
// depends on.
//
// This package contains fake implementations of the narrow STS, Secrets
// Manager and SSM client interfaces, so credential resolution and property
// loading can be unit tested without real service dependencies. Fakes are
// manually implemented (not generated) to provide precise control over test
// behavior.
//
// Usage:
//
//	stsClient := fakes.NewFakeSTSClient()
//	secretsClient := fakes.NewFakeSecretsManagerClient()
//	secretsClient.AddSecretString("prod/db", `{"username":"app","password":"hunter2"}`)
//	// Wire the fakes into a resolver and assert on stsClient.Calls...
package fakes
