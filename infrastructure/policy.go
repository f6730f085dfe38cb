package main

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

const policyVersion = "2012-10-17"

// PolicyDocument is an IAM policy document.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement is one statement of a PolicyDocument. Action and Resource hold
// either a string or a list of strings.
type PolicyStatement struct {
	Sid       string         `json:"Sid,omitempty"`
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal,omitempty"`
	Action    any            `json:"Action"`
	Resource  any            `json:"Resource,omitempty"`
	Condition map[string]any `json:"Condition,omitempty"`
}

// newPolicyDocument returns a document with the current policy language version.
func newPolicyDocument(statements ...PolicyStatement) PolicyDocument {
	return PolicyDocument{Version: policyVersion, Statement: statements}
}

// JSON renders the document.
func (d PolicyDocument) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// assumeRoleForService is the trust policy letting an AWS service assume a role.
func assumeRoleForService(service string) PolicyDocument {
	return newPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: map[string]any{"Service": service},
		Action:    "sts:AssumeRole",
	})
}

// managedPolicyArn returns the ARN of an AWS managed IAM policy.
func managedPolicyArn(name string) string {
	return arn.ARN{
		Partition: "aws",
		Service:   "iam",
		AccountID: "aws",
		Resource:  "policy/" + name,
	}.String()
}

// ssmParameterArn returns the ARN of an SSM parameter path, which may end in a wildcard.
func ssmParameterArn(region, account, path string) string {
	return arn.ARN{
		Partition: "aws",
		Service:   "ssm",
		Region:    region,
		AccountID: account,
		Resource:  "parameter" + path,
	}.String()
}

// distributionArn returns the ARN of a CloudFront distribution.
func distributionArn(account, id string) string {
	return arn.ARN{
		Partition: "aws",
		Service:   "cloudfront",
		AccountID: account,
		Resource:  "distribution/" + id,
	}.String()
}
