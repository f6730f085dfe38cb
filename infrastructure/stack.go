package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/rs/zerolog"
)

const (
	stackResourceType = "blog:index:BlogStack"
	edgeRegion        = "us-east-1"
	originSubdomain   = "origin"
)

// BlogStack is the component every blog resource is parented to.
type BlogStack struct {
	pulumi.ResourceState

	settings     *Settings
	hostedZone   *HostedZoneResources
	network      *NetworkResources
	keyPair      *KeyPairResources
	webServer    *WebServerResources
	loadBalancer *LoadBalancerResources
	database     *DatabaseResources
	bucket       *WebsiteBucketResources
	distribution *DistributionResources
	deployment   *DeploymentResources
	dashboard    *cloudwatch.Dashboard
	vpn          *VpnResources
}

func newProvider(ctx *pulumi.Context, name, region, account string) (*aws.Provider, error) {
	return aws.NewProvider(ctx, name, &aws.ProviderArgs{
		Region:            pulumi.String(region),
		AllowedAccountIds: pulumi.StringArray{pulumi.String(account)},
		DefaultTags: &aws.ProviderDefaultTagsArgs{
			Tags: pulumi.StringMap{
				"Project": pulumi.String("blog"),
			},
		},
	})
}

// lookupZones returns the first count available zones of the provider's region.
func lookupZones(ctx *pulumi.Context, count int, provider *aws.Provider) ([]string, error) {
	zones, err := aws.GetAvailabilityZones(ctx, &aws.GetAvailabilityZonesArgs{
		State: pulumi.StringRef("available"),
	}, pulumi.Provider(provider))
	if err != nil {
		return nil, err
	}
	if len(zones.Names) < 2 {
		return nil, fmt.Errorf("region has %d available zones, at least 2 required", len(zones.Names))
	}
	if count > len(zones.Names) {
		count = len(zones.Names)
	}
	return zones.Names[:count], nil
}

// createBlogStack builds the whole deployment from the validated environment and the
// stack's context parameters.
func createBlogStack(ctx *pulumi.Context, env *Environment, logger zerolog.Logger) (*BlogStack, error) {
	settings, err := loadSettings(ctx, env)
	if err != nil {
		return nil, err
	}

	regional, err := newProvider(ctx, "regional", env.Region, env.Account)
	if err != nil {
		return nil, fmt.Errorf("create regional provider: %w", err)
	}
	edge, err := newProvider(ctx, "edge", edgeRegion, env.Account)
	if err != nil {
		return nil, fmt.Errorf("create edge provider: %w", err)
	}

	stack := &BlogStack{settings: settings}
	if err := ctx.RegisterComponentResource(stackResourceType, "blog", stack, pulumi.Providers(regional)); err != nil {
		return nil, err
	}
	opts := []pulumi.ResourceOption{pulumi.Parent(stack)}
	edgeOpts := []pulumi.ResourceOption{pulumi.Parent(stack), pulumi.Provider(edge)}
	originName := originSubdomain + "." + env.DomainName

	logger.Debug().Str("zone", env.HostedZoneName).Msg("creating hosted zone")
	stack.hostedZone, err = createHostedZoneResources(ctx, HostedZoneArgs{
		ZoneName:     env.HostedZoneName,
		GoogleVerify: settings.GoogleVerify,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create hosted zone: %w", err)
	}

	zones, err := lookupZones(ctx, settings.AvailabilityZones, regional)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}

	logger.Debug().Str("cidr", env.VpcCidr).Strs("zones", zones).Msg("creating network")
	stack.network, err = createNetworkResources(ctx, NetworkArgs{
		CidrBlock: env.VpcCidr,
		Zones:     zones,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}

	accessIdentity, err := createAccessIdentity(ctx, env.DomainName, opts...)
	if err != nil {
		return nil, fmt.Errorf("create origin access identity: %w", err)
	}

	logger.Debug().Str("bucket", env.DomainName).Msg("creating website bucket")
	stack.bucket, err = createWebsiteBucketResources(ctx, WebsiteBucketArgs{
		BucketName:     env.DomainName,
		AccessIdentity: accessIdentity,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create website bucket: %w", err)
	}

	stack.keyPair, err = createKeyPairResources(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create key pair: %w", err)
	}

	imageID, err := resolveImage(ctx, env.Region, pulumi.Provider(regional))
	if err != nil {
		return nil, fmt.Errorf("create web server: %w", err)
	}

	logger.Debug().Str("image", imageID).Msg("creating web server")
	stack.webServer, err = createWebServerResources(ctx, WebServerArgs{
		Network: stack.network,
		KeyPair: stack.keyPair,
		ImageID: imageID,
		Region:  env.Region,
		Account: env.Account,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create web server: %w", err)
	}

	originCertificateArn := pulumi.String(settings.CertificateArn).ToStringOutput()
	if settings.CertificateArn == "" {
		// CloudFront forwards the viewer Host header, so the origin serves the apex too
		originCertificateArn, err = createValidatedCertificate(ctx, "origin-certificate", CertificateArgs{
			DomainName:              env.DomainName,
			SubjectAlternativeNames: []string{originName},
			Zone:                    stack.hostedZone.zone,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("create origin certificate: %w", err)
		}
	}

	logger.Debug().Int("port", settings.WebServerPort).Msg("creating load balancer")
	stack.loadBalancer, err = createLoadBalancerResources(ctx, LoadBalancerArgs{
		Network:        stack.network,
		WebServer:      stack.webServer,
		Port:           settings.WebServerPort,
		CertificateArn: originCertificateArn,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create load balancer: %w", err)
	}

	logger.Debug().Msg("creating database")
	stack.database, err = createDatabaseResources(ctx, DatabaseArgs{
		Network:     stack.network,
		WebServer:   stack.webServer,
		MinCapacity: auroraMinCapacity,
		MaxCapacity: auroraMaxCapacity,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}

	edgeCertificateArn, err := createValidatedCertificate(ctx, "edge-certificate", CertificateArgs{
		DomainName: env.DomainName,
		Zone:       stack.hostedZone.zone,
	}, edgeOpts...)
	if err != nil {
		return nil, fmt.Errorf("create edge certificate: %w", err)
	}

	logger.Debug().Str("domain", env.DomainName).Msg("creating distribution")
	stack.distribution, err = createDistributionResources(ctx, DistributionArgs{
		DomainName:     env.DomainName,
		OriginName:     originName,
		CertificateArn: edgeCertificateArn,
		Bucket:         stack.bucket,
		AccessIdentity: accessIdentity,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create distribution: %w", err)
	}

	_, err = createAliasRecord(ctx, "origin-alias", AliasArgs{
		Zone:         stack.hostedZone.zone,
		RecordName:   originName,
		TargetName:   stack.loadBalancer.loadBalancer.DnsName,
		TargetZoneId: stack.loadBalancer.loadBalancer.ZoneId,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create origin alias: %w", err)
	}

	_, err = createAliasRecord(ctx, "website-alias", AliasArgs{
		Zone:         stack.hostedZone.zone,
		RecordName:   env.DomainName,
		TargetName:   stack.distribution.distribution.DomainName,
		TargetZoneId: stack.distribution.distribution.HostedZoneId,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create website alias: %w", err)
	}

	logger.Debug().Str("repository", env.ThemeRepository).Msg("creating deployment role")
	stack.deployment, err = createDeploymentResources(ctx, DeploymentArgs{
		Account:      env.Account,
		Repository:   env.ThemeRepository,
		Bucket:       stack.bucket,
		Distribution: stack.distribution,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create deployment role: %w", err)
	}

	stack.dashboard, err = createDashboard(ctx, MonitoringArgs{
		Region:       env.Region,
		Distribution: stack.distribution,
		LoadBalancer: stack.loadBalancer,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("create dashboard: %w", err)
	}

	if env.VpnEnabled() {
		logger.Debug().Str("clientCidr", env.VpnCidr).Msg("creating client VPN")
		stack.vpn, err = createVpnResources(ctx, VpnArgs{
			Network:        stack.network,
			VpcCidr:        env.VpcCidr,
			ClientCidr:     env.VpnCidr,
			CertificateArn: env.VpnCertificateArn,
		}, opts...)
		if err != nil {
			return nil, fmt.Errorf("create client VPN: %w", err)
		}
	}

	if err := ctx.RegisterResourceOutputs(stack, pulumi.Map{
		"vpcId":          stack.network.vpc.ID(),
		"distributionId": stack.distribution.distribution.ID(),
	}); err != nil {
		return nil, err
	}

	logger.Info().
		Str("domain", env.DomainName).
		Str("region", env.Region).
		Int("zones", len(zones)).
		Bool("vpn", env.VpnEnabled()).
		Msg("blog stack defined")

	return stack, nil
}
