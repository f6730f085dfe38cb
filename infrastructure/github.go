package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	githubTokenHost     = "token.actions.githubusercontent.com"
	githubTokenAudience = "sts.amazonaws.com"
	githubThumbprint    = "6938fd4d98bab03faadb97b34396831e3780aea1"
	deploymentRoleName  = "ThemeDeploymentRole"
)

// DeploymentArgs configures the role GitHub Actions assumes to publish the theme.
type DeploymentArgs struct {
	Account      string
	Repository   string
	Bucket       *WebsiteBucketResources
	Distribution *DistributionResources
}

// DeploymentResources holds the GitHub OIDC trust and the deployment role
type DeploymentResources struct {
	provider *iam.OpenIdConnectProvider
	role     *iam.Role
}

// deploymentTrustPolicy lets workflows of repository, and nothing else, assume the role
// through the GitHub OIDC provider.
func deploymentTrustPolicy(providerArn, repository string) PolicyDocument {
	return newPolicyDocument(PolicyStatement{
		Effect:    "Allow",
		Principal: map[string]any{"Federated": providerArn},
		Action:    "sts:AssumeRoleWithWebIdentity",
		Condition: map[string]any{
			"StringEquals": map[string]string{
				githubTokenHost + ":aud": githubTokenAudience,
			},
			"StringLike": map[string]string{
				githubTokenHost + ":sub": "repo:" + repository + ":*",
			},
		},
	})
}

// deploymentPolicy allows cache invalidation of the distribution and read/write
// access to the website bucket.
func deploymentPolicy(account, distributionID, bucketArn string) PolicyDocument {
	return newPolicyDocument(
		PolicyStatement{
			Sid:      "InvalidateDistribution",
			Effect:   "Allow",
			Action:   "cloudfront:CreateInvalidation",
			Resource: distributionArn(account, distributionID),
		},
		PolicyStatement{
			Sid:    "ReadWriteWebsiteBucket",
			Effect: "Allow",
			Action: []string{
				"s3:GetObject*",
				"s3:GetBucket*",
				"s3:List*",
				"s3:DeleteObject*",
				"s3:PutObject",
				"s3:PutObjectLegalHold",
				"s3:PutObjectRetention",
				"s3:PutObjectTagging",
				"s3:PutObjectVersionTagging",
				"s3:Abort*",
			},
			Resource: []string{bucketArn, bucketArn + "/*"},
		},
	)
}

// createDeploymentResources creates the GitHub OIDC provider and the theme deployment role.
func createDeploymentResources(ctx *pulumi.Context, args DeploymentArgs, opts ...pulumi.ResourceOption) (*DeploymentResources, error) {
	provider, err := iam.NewOpenIdConnectProvider(ctx, "github-provider", &iam.OpenIdConnectProviderArgs{
		Url:             pulumi.String("https://" + githubTokenHost),
		ClientIdLists:   pulumi.StringArray{pulumi.String(githubTokenAudience)},
		ThumbprintLists: pulumi.StringArray{pulumi.String(githubThumbprint)},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("github-actions"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	role, err := iam.NewRole(ctx, "theme-deployment-role", &iam.RoleArgs{
		Name:        pulumi.String(deploymentRoleName),
		Description: pulumi.String("Role assumed by GitHub Actions to deploy the Ghost theme"),
		AssumeRolePolicy: provider.Arn.ApplyT(func(providerArn string) (string, error) {
			return deploymentTrustPolicy(providerArn, args.Repository).JSON()
		}).(pulumi.StringOutput),
		Tags: pulumi.StringMap{
			"Name": pulumi.String(deploymentRoleName),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicy(ctx, "theme-deployment-policy", &iam.RolePolicyArgs{
		Role: role.Name,
		Policy: pulumi.All(args.Distribution.distribution.ID(), args.Bucket.bucket.Arn).ApplyT(func(all []interface{}) (string, error) {
			distributionID := string(all[0].(pulumi.ID))
			bucketArn := all[1].(string)
			return deploymentPolicy(args.Account, distributionID, bucketArn).JSON()
		}).(pulumi.StringOutput),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &DeploymentResources{
		provider: provider,
		role:     role,
	}, nil
}
