package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudfront"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Managed CloudFront policies.
const (
	cachingOptimizedPolicyID    = "658327ea-f89d-4fab-a63d-7e88639e58f6"
	allViewerRequestPolicyID    = "216adef6-5c7f-47e4-b989-5492eafa07d3"
	corsS3OriginRequestPolicyID = "88a5eaf4-2fd4-4709-b370-b4c650ea3fcf"
)

const (
	loadBalancerOriginID = "load-balancer"
	bucketOriginID       = "website-bucket"
	assetsOriginGroupID  = "assets"
	assetsPathPattern    = "/assets/*"
	assetsOriginPath     = "/public"
)

var failoverStatusCodes = []int{400, 403, 404, 416, 500, 502, 503, 504}

// DistributionArgs configures the CloudFront distribution.
type DistributionArgs struct {
	DomainName     string
	OriginName     string
	CertificateArn pulumi.StringOutput
	Bucket         *WebsiteBucketResources
	AccessIdentity *cloudfront.OriginAccessIdentity
}

// DistributionResources holds the distribution and its assets cache policy
type DistributionResources struct {
	assetsCachePolicy *cloudfront.CachePolicy
	distribution      *cloudfront.Distribution
}

// createAccessIdentity creates the identity CloudFront uses to read the website bucket.
func createAccessIdentity(ctx *pulumi.Context, domainName string, opts ...pulumi.ResourceOption) (*cloudfront.OriginAccessIdentity, error) {
	return cloudfront.NewOriginAccessIdentity(ctx, "website-access-identity", &cloudfront.OriginAccessIdentityArgs{
		Comment: pulumi.String("Access to the " + domainName + " website bucket"),
	}, opts...)
}

// createDistributionResources creates the distribution serving the blog. Pages come
// from the load balancer; /assets/* is served from the bucket with the load balancer
// as failover.
func createDistributionResources(ctx *pulumi.Context, args DistributionArgs, opts ...pulumi.ResourceOption) (*DistributionResources, error) {
	assetsCachePolicy, err := cloudfront.NewCachePolicy(ctx, "assets-cache-policy", &cloudfront.CachePolicyArgs{
		Name:       pulumi.String("BlogAssetsCachePolicy"),
		Comment:    pulumi.String("Static assets versioned by the v query parameter"),
		MinTtl:     pulumi.Int(1),
		DefaultTtl: pulumi.Int(86400),
		MaxTtl:     pulumi.Int(31536000),
		ParametersInCacheKeyAndForwardedToOrigin: &cloudfront.CachePolicyParametersInCacheKeyAndForwardedToOriginArgs{
			EnableAcceptEncodingGzip:   pulumi.Bool(true),
			EnableAcceptEncodingBrotli: pulumi.Bool(true),
			CookiesConfig: &cloudfront.CachePolicyParametersInCacheKeyAndForwardedToOriginCookiesConfigArgs{
				CookieBehavior: pulumi.String("none"),
			},
			HeadersConfig: &cloudfront.CachePolicyParametersInCacheKeyAndForwardedToOriginHeadersConfigArgs{
				HeaderBehavior: pulumi.String("none"),
			},
			QueryStringsConfig: &cloudfront.CachePolicyParametersInCacheKeyAndForwardedToOriginQueryStringsConfigArgs{
				QueryStringBehavior: pulumi.String("whitelist"),
				QueryStrings: &cloudfront.CachePolicyParametersInCacheKeyAndForwardedToOriginQueryStringsConfigQueryStringsArgs{
					Items: pulumi.StringArray{pulumi.String("v")},
				},
			},
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	distribution, err := cloudfront.NewDistribution(ctx, "website-distribution", &cloudfront.DistributionArgs{
		Enabled:       pulumi.Bool(true),
		IsIpv6Enabled: pulumi.Bool(true),
		HttpVersion:   pulumi.String("http2and3"),
		Comment:       pulumi.String(args.DomainName),
		Aliases:       pulumi.StringArray{pulumi.String(args.DomainName)},
		Origins: cloudfront.DistributionOriginArray{
			&cloudfront.DistributionOriginArgs{
				OriginId:   pulumi.String(loadBalancerOriginID),
				DomainName: pulumi.String(args.OriginName),
				CustomOriginConfig: &cloudfront.DistributionOriginCustomOriginConfigArgs{
					HttpPort:             pulumi.Int(80),
					HttpsPort:            pulumi.Int(httpsPort),
					OriginProtocolPolicy: pulumi.String("https-only"),
					OriginSslProtocols:   pulumi.StringArray{pulumi.String("TLSv1.2")},
				},
			},
			&cloudfront.DistributionOriginArgs{
				OriginId:   pulumi.String(bucketOriginID),
				DomainName: args.Bucket.bucket.BucketRegionalDomainName,
				OriginPath: pulumi.String(assetsOriginPath),
				S3OriginConfig: &cloudfront.DistributionOriginS3OriginConfigArgs{
					OriginAccessIdentity: args.AccessIdentity.CloudfrontAccessIdentityPath,
				},
			},
		},
		OriginGroups: cloudfront.DistributionOriginGroupArray{
			&cloudfront.DistributionOriginGroupArgs{
				OriginId: pulumi.String(assetsOriginGroupID),
				FailoverCriteria: &cloudfront.DistributionOriginGroupFailoverCriteriaArgs{
					StatusCodes: pulumi.ToIntArray(failoverStatusCodes),
				},
				Members: cloudfront.DistributionOriginGroupMemberArray{
					&cloudfront.DistributionOriginGroupMemberArgs{
						OriginId: pulumi.String(bucketOriginID),
					},
					&cloudfront.DistributionOriginGroupMemberArgs{
						OriginId: pulumi.String(loadBalancerOriginID),
					},
				},
			},
		},
		DefaultCacheBehavior: &cloudfront.DistributionDefaultCacheBehaviorArgs{
			TargetOriginId:        pulumi.String(loadBalancerOriginID),
			ViewerProtocolPolicy:  pulumi.String("redirect-to-https"),
			AllowedMethods:        pulumi.ToStringArray([]string{"GET", "HEAD", "OPTIONS", "PUT", "PATCH", "POST", "DELETE"}),
			CachedMethods:         pulumi.ToStringArray([]string{"GET", "HEAD"}),
			CachePolicyId:         pulumi.String(cachingOptimizedPolicyID),
			OriginRequestPolicyId: pulumi.String(allViewerRequestPolicyID),
			Compress:              pulumi.Bool(true),
		},
		OrderedCacheBehaviors: cloudfront.DistributionOrderedCacheBehaviorArray{
			&cloudfront.DistributionOrderedCacheBehaviorArgs{
				PathPattern:           pulumi.String(assetsPathPattern),
				TargetOriginId:        pulumi.String(assetsOriginGroupID),
				ViewerProtocolPolicy:  pulumi.String("redirect-to-https"),
				AllowedMethods:        pulumi.ToStringArray([]string{"GET", "HEAD", "OPTIONS"}),
				CachedMethods:         pulumi.ToStringArray([]string{"GET", "HEAD", "OPTIONS"}),
				CachePolicyId:         assetsCachePolicy.ID(),
				OriginRequestPolicyId: pulumi.String(corsS3OriginRequestPolicyID),
				Compress:              pulumi.Bool(true),
			},
		},
		Restrictions: &cloudfront.DistributionRestrictionsArgs{
			GeoRestriction: &cloudfront.DistributionRestrictionsGeoRestrictionArgs{
				RestrictionType: pulumi.String("none"),
			},
		},
		ViewerCertificate: &cloudfront.DistributionViewerCertificateArgs{
			AcmCertificateArn:      args.CertificateArn,
			SslSupportMethod:       pulumi.String("sni-only"),
			MinimumProtocolVersion: pulumi.String("TLSv1.2_2021"),
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String(args.DomainName),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &DistributionResources{
		assetsCachePolicy: assetsCachePolicy,
		distribution:      distribution,
	}, nil
}
