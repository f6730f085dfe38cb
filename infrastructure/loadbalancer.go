package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	httpsPort         = 443
	listenerSslPolicy = "ELBSecurityPolicy-FS-1-2-Res-2020-10"
	healthCheckPath   = "/health"
	healthCheckCodes  = "200,301"
)

// LoadBalancerArgs configures the application load balancer in front of the web server.
type LoadBalancerArgs struct {
	Network        *NetworkResources
	WebServer      *WebServerResources
	Port           int
	CertificateArn pulumi.StringOutput
}

// LoadBalancerResources holds the load balancer and its listener chain
type LoadBalancerResources struct {
	securityGroup *ec2.SecurityGroup
	loadBalancer  *lb.LoadBalancer
	targetGroup   *lb.TargetGroup
	listener      *lb.Listener
}

// createLoadBalancerResources creates an internet-facing ALB terminating HTTPS and
// forwarding to the web server's application port.
func createLoadBalancerResources(ctx *pulumi.Context, args LoadBalancerArgs, opts ...pulumi.ResourceOption) (*LoadBalancerResources, error) {
	securityGroup, err := createSecurityGroup(ctx, "load-balancer-sg",
		"Allow HTTPS access to the blog load balancer", args.Network.vpc, opts...)
	if err != nil {
		return nil, err
	}

	_, err = allowIngress(ctx, "load-balancer-https-ingress", ingressArgs{
		securityGroup: securityGroup,
		port:          httpsPort,
		cidrBlocks:    []string{"0.0.0.0/0"},
		description:   "HTTPS from anywhere",
	}, opts...)
	if err != nil {
		return nil, err
	}

	// The application port is reachable from the load balancer only
	_, err = allowIngress(ctx, "web-server-app-ingress", ingressArgs{
		securityGroup: args.WebServer.securityGroup,
		port:          args.Port,
		source:        securityGroup,
		description:   "Ghost app access from the load balancer",
	}, opts...)
	if err != nil {
		return nil, err
	}

	loadBalancer, err := lb.NewLoadBalancer(ctx, "web-server-alb", &lb.LoadBalancerArgs{
		LoadBalancerType: pulumi.String("application"),
		Internal:         pulumi.Bool(false),
		SecurityGroups:   pulumi.StringArray{securityGroup.ID()},
		Subnets:          args.Network.PublicSubnetIds(),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-alb"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	targetGroup, err := lb.NewTargetGroup(ctx, "web-server-targets", &lb.TargetGroupArgs{
		Port:       pulumi.Int(args.Port),
		Protocol:   pulumi.String("HTTP"),
		TargetType: pulumi.String("ip"),
		VpcId:      args.Network.vpc.ID(),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Enabled:  pulumi.Bool(true),
			Path:     pulumi.String(healthCheckPath),
			Protocol: pulumi.String("HTTP"),
			Interval: pulumi.Int(300),
			Matcher:  pulumi.String(healthCheckCodes),
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-web-server-targets"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = lb.NewTargetGroupAttachment(ctx, "web-server-target", &lb.TargetGroupAttachmentArgs{
		TargetGroupArn: targetGroup.Arn,
		TargetId:       args.WebServer.instance.PrivateIp,
		Port:           pulumi.Int(args.Port),
	}, opts...)
	if err != nil {
		return nil, err
	}

	listener, err := lb.NewListener(ctx, "https-listener", &lb.ListenerArgs{
		LoadBalancerArn: loadBalancer.Arn,
		Port:            pulumi.Int(httpsPort),
		Protocol:        pulumi.String("HTTPS"),
		SslPolicy:       pulumi.String(listenerSslPolicy),
		CertificateArn:  args.CertificateArn,
		DefaultActions: lb.ListenerDefaultActionArray{
			&lb.ListenerDefaultActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: targetGroup.Arn,
			},
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &LoadBalancerResources{
		securityGroup: securityGroup,
		loadBalancer:  loadBalancer,
		targetGroup:   targetGroup,
		listener:      listener,
	}, nil
}
