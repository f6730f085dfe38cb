package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2clientvpn"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// VpnArgs configures the optional Client VPN endpoint.
type VpnArgs struct {
	Network        *NetworkResources
	VpcCidr        string
	ClientCidr     string
	CertificateArn string
}

// VpnResources holds the Client VPN endpoint
type VpnResources struct {
	endpoint      *ec2clientvpn.Endpoint
	association   *ec2clientvpn.NetworkAssociation
	authorization *ec2clientvpn.AuthorizationRule
}

// createVpnResources creates a certificate-authenticated, split tunnel Client VPN
// endpoint giving clients access to the whole VPC.
func createVpnResources(ctx *pulumi.Context, args VpnArgs, opts ...pulumi.ResourceOption) (*VpnResources, error) {
	securityGroup, err := createSecurityGroup(ctx, "client-vpn-sg",
		"Client VPN endpoint of the blog VPC", args.Network.vpc, opts...)
	if err != nil {
		return nil, err
	}

	endpoint, err := ec2clientvpn.NewEndpoint(ctx, "client-vpn", &ec2clientvpn.EndpointArgs{
		Description:          pulumi.String("Blog VPC access"),
		ServerCertificateArn: pulumi.String(args.CertificateArn),
		ClientCidrBlock:      pulumi.String(args.ClientCidr),
		SplitTunnel:          pulumi.Bool(true),
		VpcId:                args.Network.vpc.ID(),
		SecurityGroupIds:     pulumi.StringArray{securityGroup.ID()},
		AuthenticationOptions: ec2clientvpn.EndpointAuthenticationOptionArray{
			&ec2clientvpn.EndpointAuthenticationOptionArgs{
				Type:                    pulumi.String("certificate-authentication"),
				RootCertificateChainArn: pulumi.String(args.CertificateArn),
			},
		},
		ConnectionLogOptions: &ec2clientvpn.EndpointConnectionLogOptionsArgs{
			Enabled: pulumi.Bool(false),
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-client-vpn"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	association, err := ec2clientvpn.NewNetworkAssociation(ctx, "client-vpn-association", &ec2clientvpn.NetworkAssociationArgs{
		ClientVpnEndpointId: endpoint.ID(),
		SubnetId:            args.Network.publicSubnets[0].ID(),
	}, opts...)
	if err != nil {
		return nil, err
	}

	authorization, err := ec2clientvpn.NewAuthorizationRule(ctx, "client-vpn-authorization", &ec2clientvpn.AuthorizationRuleArgs{
		ClientVpnEndpointId: endpoint.ID(),
		TargetNetworkCidr:   pulumi.String(args.VpcCidr),
		AuthorizeAllGroups:  pulumi.Bool(true),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &VpnResources{
		endpoint:      endpoint,
		association:   association,
		authorization: authorization,
	}, nil
}
