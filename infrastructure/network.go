package main

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const subnetMask = 20

// NetworkArgs configures the VPC topology.
type NetworkArgs struct {
	CidrBlock string
	Zones     []string
}

// NetworkResources holds all the networking resources
type NetworkResources struct {
	vpc                *ec2.Vpc
	publicSubnets      []*ec2.Subnet
	isolatedSubnets    []*ec2.Subnet
	internetGateway    *ec2.InternetGateway
	publicRouteTable   *ec2.RouteTable
	isolatedRouteTable *ec2.RouteTable
}

// PublicSubnetIds returns the ids of the public subnets in zone order.
func (n *NetworkResources) PublicSubnetIds() pulumi.StringArray {
	ids := pulumi.StringArray{}
	for _, s := range n.publicSubnets {
		ids = append(ids, s.ID())
	}
	return ids
}

// IsolatedSubnetIds returns the ids of the isolated subnets in zone order.
func (n *NetworkResources) IsolatedSubnetIds() pulumi.StringArray {
	ids := pulumi.StringArray{}
	for _, s := range n.isolatedSubnets {
		ids = append(ids, s.ID())
	}
	return ids
}

// carveSubnets splits cidr into count consecutive blocks of the given mask.
func carveSubnets(cidr string, mask, count int) ([]string, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("parse VPC CIDR %q: %w", cidr, err)
	}
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("VPC CIDR %q is not IPv4", cidr)
	}
	if mask < prefix.Bits() || mask > 32 {
		return nil, fmt.Errorf("subnet mask /%d does not fit in %s", mask, cidr)
	}
	if available := 1 << (mask - prefix.Bits()); count > available {
		return nil, fmt.Errorf("%s holds %d subnets of mask /%d, %d required", cidr, available, mask, count)
	}

	base := prefix.Masked().Addr().As4()
	start := binary.BigEndian.Uint32(base[:])
	step := uint32(1) << (32 - mask)

	blocks := make([]string, 0, count)
	for i := 0; i < count; i++ {
		var addr [4]byte
		binary.BigEndian.PutUint32(addr[:], start+uint32(i)*step)
		blocks = append(blocks, netip.PrefixFrom(netip.AddrFrom4(addr), mask).String())
	}
	return blocks, nil
}

// createNetworkResources creates the VPC with one public and one isolated subnet per zone.
func createNetworkResources(ctx *pulumi.Context, args NetworkArgs, opts ...pulumi.ResourceOption) (*NetworkResources, error) {
	if len(args.Zones) == 0 {
		return nil, fmt.Errorf("no availability zones")
	}

	blocks, err := carveSubnets(args.CidrBlock, subnetMask, 2*len(args.Zones))
	if err != nil {
		return nil, err
	}

	// Create VPC
	vpc, err := ec2.NewVpc(ctx, "blog-vpc", &ec2.VpcArgs{
		CidrBlock:          pulumi.String(args.CidrBlock),
		EnableDnsSupport:   pulumi.Bool(true),
		EnableDnsHostnames: pulumi.Bool(true),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-vpc"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create Internet Gateway
	igw, err := ec2.NewInternetGateway(ctx, "blog-igw", &ec2.InternetGatewayArgs{
		VpcId: vpc.ID(),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-igw"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create public route table
	publicRouteTable, err := ec2.NewRouteTable(ctx, "public-rt", &ec2.RouteTableArgs{
		VpcId: vpc.ID(),
		Routes: ec2.RouteTableRouteArray{
			&ec2.RouteTableRouteArgs{
				CidrBlock: pulumi.String("0.0.0.0/0"),
				GatewayId: igw.ID(),
			},
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-public-rt"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create isolated route table (no default route)
	isolatedRouteTable, err := ec2.NewRouteTable(ctx, "isolated-rt", &ec2.RouteTableArgs{
		VpcId: vpc.ID(),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-isolated-rt"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	network := &NetworkResources{
		vpc:                vpc,
		internetGateway:    igw,
		publicRouteTable:   publicRouteTable,
		isolatedRouteTable: isolatedRouteTable,
	}

	for i, zone := range args.Zones {
		public, err := createSubnet(ctx, fmt.Sprintf("public-subnet-%d", i+1), subnetArgs{
			vpc:        vpc,
			cidrBlock:  blocks[i],
			zone:       zone,
			routeTable: publicRouteTable,
			public:     true,
		}, opts...)
		if err != nil {
			return nil, err
		}
		network.publicSubnets = append(network.publicSubnets, public)
	}

	for i, zone := range args.Zones {
		isolated, err := createSubnet(ctx, fmt.Sprintf("isolated-subnet-%d", i+1), subnetArgs{
			vpc:        vpc,
			cidrBlock:  blocks[len(args.Zones)+i],
			zone:       zone,
			routeTable: isolatedRouteTable,
		}, opts...)
		if err != nil {
			return nil, err
		}
		network.isolatedSubnets = append(network.isolatedSubnets, isolated)
	}

	return network, nil
}

type subnetArgs struct {
	vpc        *ec2.Vpc
	cidrBlock  string
	zone       string
	routeTable *ec2.RouteTable
	public     bool
}

func createSubnet(ctx *pulumi.Context, name string, args subnetArgs, opts ...pulumi.ResourceOption) (*ec2.Subnet, error) {
	tier := "isolated"
	if args.public {
		tier = "public"
	}

	subnet, err := ec2.NewSubnet(ctx, name, &ec2.SubnetArgs{
		VpcId:               args.vpc.ID(),
		CidrBlock:           pulumi.String(args.cidrBlock),
		AvailabilityZone:    pulumi.String(args.zone),
		MapPublicIpOnLaunch: pulumi.Bool(args.public),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-" + name),
			"Tier": pulumi.String(tier),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = ec2.NewRouteTableAssociation(ctx, name+"-rta", &ec2.RouteTableAssociationArgs{
		SubnetId:     subnet.ID(),
		RouteTableId: args.routeTable.ID(),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return subnet, nil
}

// createSecurityGroup creates an empty security group that allows all outbound
// traffic. Inbound rules are attached as separate SecurityGroupRule resources.
func createSecurityGroup(ctx *pulumi.Context, name, description string, vpc *ec2.Vpc, opts ...pulumi.ResourceOption) (*ec2.SecurityGroup, error) {
	sg, err := ec2.NewSecurityGroup(ctx, name, &ec2.SecurityGroupArgs{
		VpcId:       vpc.ID(),
		Description: pulumi.String(description),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-" + name),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = ec2.NewSecurityGroupRule(ctx, name+"-egress", &ec2.SecurityGroupRuleArgs{
		Type:            pulumi.String("egress"),
		SecurityGroupId: sg.ID(),
		Protocol:        pulumi.String("-1"),
		FromPort:        pulumi.Int(0),
		ToPort:          pulumi.Int(0),
		CidrBlocks:      pulumi.StringArray{pulumi.String("0.0.0.0/0")},
		Description:     pulumi.String("Allow all outbound traffic"),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return sg, nil
}

type ingressArgs struct {
	securityGroup *ec2.SecurityGroup
	port          int
	source        *ec2.SecurityGroup
	cidrBlocks    []string
	description   string
}

// allowIngress opens one TCP port on a security group, either to another security
// group or to CIDR blocks.
func allowIngress(ctx *pulumi.Context, name string, args ingressArgs, opts ...pulumi.ResourceOption) (*ec2.SecurityGroupRule, error) {
	ruleArgs := &ec2.SecurityGroupRuleArgs{
		Type:            pulumi.String("ingress"),
		SecurityGroupId: args.securityGroup.ID(),
		Protocol:        pulumi.String("tcp"),
		FromPort:        pulumi.Int(args.port),
		ToPort:          pulumi.Int(args.port),
		Description:     pulumi.String(args.description),
	}
	if args.source != nil {
		ruleArgs.SourceSecurityGroupId = args.source.ID()
	} else {
		ruleArgs.CidrBlocks = pulumi.ToStringArray(args.cidrBlocks)
	}

	return ec2.NewSecurityGroupRule(ctx, name, ruleArgs, opts...)
}
