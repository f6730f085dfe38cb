package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssumeRoleForService(t *testing.T) {
	doc, err := assumeRoleForService("ec2.amazonaws.com").JSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"Service": "ec2.amazonaws.com"},
			"Action": "sts:AssumeRole"
		}]
	}`, doc)
}

func TestPolicyArns(t *testing.T) {
	assert.Equal(t, "arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore",
		managedPolicyArn("AmazonSSMManagedInstanceCore"))
	assert.Equal(t, "arn:aws:ssm:eu-west-1:123456789012:parameter/blog/*",
		ssmParameterArn(testRegion, testAccount, ssmParameterPrefix+"/*"))
	assert.Equal(t, "arn:aws:cloudfront::123456789012:distribution/E2QWRUHAPOMQZL",
		distributionArn(testAccount, "E2QWRUHAPOMQZL"))
}

func TestWebServerParameterPolicy(t *testing.T) {
	mocks, err := runStack(t, testEnvironment(), nil)
	require.NoError(t, err)

	policy := mocks.named(t, "aws:iam/rolePolicy:RolePolicy", "web-server-parameters")
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Action": ["ssm:GetParameter", "ssm:GetParameters", "ssm:GetParametersByPath"],
			"Resource": "arn:aws:ssm:eu-west-1:123456789012:parameter/blog/*"
		}]
	}`, str(policy, "policy"))

	secret := mocks.named(t, "aws:iam/rolePolicy:RolePolicy", "web-server-database-secret")
	assert.Contains(t, str(secret, "policy"), "secretsmanager:GetSecretValue")
	assert.Contains(t, str(secret, "policy"), "secret:rds!cluster-0a1b2c")
}
