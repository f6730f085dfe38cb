package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudfront"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/s3"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// WebsiteBucketArgs configures the bucket holding the blog's static assets.
type WebsiteBucketArgs struct {
	BucketName     string
	AccessIdentity *cloudfront.OriginAccessIdentity
}

// WebsiteBucketResources holds the website bucket and its access controls
type WebsiteBucketResources struct {
	bucket            *s3.Bucket
	publicAccessBlock *s3.BucketPublicAccessBlock
	policy            *s3.BucketPolicy
}

// createWebsiteBucketResources creates a private, encrypted bucket readable only
// through the CloudFront origin access identity. The bucket survives stack deletion.
func createWebsiteBucketResources(ctx *pulumi.Context, args WebsiteBucketArgs, opts ...pulumi.ResourceOption) (*WebsiteBucketResources, error) {
	bucket, err := s3.NewBucket(ctx, "website-bucket", &s3.BucketArgs{
		Bucket: pulumi.String(args.BucketName),
		Acl:    pulumi.String("private"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String(args.BucketName),
		},
		// Configure server-side encryption
		ServerSideEncryptionConfiguration: &s3.BucketServerSideEncryptionConfigurationArgs{
			Rule: &s3.BucketServerSideEncryptionConfigurationRuleArgs{
				ApplyServerSideEncryptionByDefault: &s3.BucketServerSideEncryptionConfigurationRuleApplyServerSideEncryptionByDefaultArgs{
					SseAlgorithm: pulumi.String("AES256"),
				},
			},
		},
	}, append(opts, pulumi.RetainOnDelete(true))...)
	if err != nil {
		return nil, err
	}

	publicAccessBlock, err := s3.NewBucketPublicAccessBlock(ctx, "website-bucket-public-access", &s3.BucketPublicAccessBlockArgs{
		Bucket:                bucket.ID(),
		BlockPublicAcls:       pulumi.Bool(true),
		BlockPublicPolicy:     pulumi.Bool(true),
		IgnorePublicAcls:      pulumi.Bool(true),
		RestrictPublicBuckets: pulumi.Bool(true),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Grant object reads to the origin access identity only
	policy, err := s3.NewBucketPolicy(ctx, "website-bucket-policy", &s3.BucketPolicyArgs{
		Bucket: bucket.ID(),
		Policy: pulumi.All(bucket.Arn, args.AccessIdentity.IamArn).ApplyT(func(args []interface{}) (string, error) {
			bucketArn := args[0].(string)
			identityArn := args[1].(string)
			return newPolicyDocument(PolicyStatement{
				Sid:       "AllowCloudFrontRead",
				Effect:    "Allow",
				Principal: map[string]any{"AWS": identityArn},
				Action:    "s3:GetObject",
				Resource:  bucketArn + "/*",
			}).JSON()
		}).(pulumi.StringOutput),
	}, append(opts, pulumi.DependsOn([]pulumi.Resource{publicAccessBlock}))...)
	if err != nil {
		return nil, err
	}

	return &WebsiteBucketResources{
		bucket:            bucket,
		publicAccessBlock: publicAccessBlock,
		policy:            policy,
	}, nil
}
