package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarveSubnets(t *testing.T) {
	blocks, err := carveSubnets("10.100.0.0/16", 20, 6)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"10.100.0.0/20",
		"10.100.16.0/20",
		"10.100.32.0/20",
		"10.100.48.0/20",
		"10.100.64.0/20",
		"10.100.80.0/20",
	}, blocks)
}

func TestCarveSubnets_UnalignedBase(t *testing.T) {
	blocks, err := carveSubnets("172.16.5.0/16", 20, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"172.16.0.0/20", "172.16.16.0/20"}, blocks)
}

func TestCarveSubnets_ExactFit(t *testing.T) {
	blocks, err := carveSubnets("10.0.0.0/17", 20, 8)
	require.NoError(t, err)
	assert.Len(t, blocks, 8)
	assert.Equal(t, "10.0.112.0/20", blocks[7])
}

func TestCarveSubnets_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cidr  string
		mask  int
		count int
	}{
		{"too many subnets", "10.0.0.0/18", 20, 6},
		{"mask wider than block", "10.0.0.0/22", 20, 1},
		{"not a prefix", "10.0.0.0", 20, 1},
		{"ipv6", "2001:db8::/48", 64, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := carveSubnets(tt.cidr, tt.mask, tt.count)
			assert.Error(t, err)
		})
	}
}

func TestNetwork_Topology(t *testing.T) {
	mocks, err := runStack(t, testEnvironment(), nil)
	require.NoError(t, err)

	vpcs := mocks.ofType("aws:ec2/vpc:Vpc")
	require.Len(t, vpcs, 1)
	assert.Equal(t, testCidr, str(vpcs[0], "cidrBlock"))

	subnets := map[string]registered{}
	for _, s := range mocks.ofType("aws:ec2/subnet:Subnet") {
		subnets[s.Name] = s
	}
	require.Len(t, subnets, 6)

	expected := map[string]struct {
		cidr   string
		zone   string
		public bool
	}{
		"public-subnet-1":   {"10.100.0.0/20", "eu-west-1a", true},
		"public-subnet-2":   {"10.100.16.0/20", "eu-west-1b", true},
		"public-subnet-3":   {"10.100.32.0/20", "eu-west-1c", true},
		"isolated-subnet-1": {"10.100.48.0/20", "eu-west-1a", false},
		"isolated-subnet-2": {"10.100.64.0/20", "eu-west-1b", false},
		"isolated-subnet-3": {"10.100.80.0/20", "eu-west-1c", false},
	}
	for name, want := range expected {
		subnet, ok := subnets[name]
		require.True(t, ok, name)
		assert.Equal(t, want.cidr, str(subnet, "cidrBlock"), name)
		assert.Equal(t, want.zone, str(subnet, "availabilityZone"), name)
		assert.Equal(t, want.public, plain(subnet.Inputs["mapPublicIpOnLaunch"]).BoolValue(), name)
	}

	assert.Len(t, mocks.ofType("aws:ec2/routeTableAssociation:RouteTableAssociation"), 6)
	assert.Len(t, mocks.ofType("aws:ec2/internetGateway:InternetGateway"), 1)
	assert.Empty(t, mocks.ofType("aws:ec2/natGateway:NatGateway"))
}

func TestNetwork_IsolatedRouteTableHasNoDefaultRoute(t *testing.T) {
	mocks, err := runStack(t, testEnvironment(), nil)
	require.NoError(t, err)

	isolated := mocks.named(t, "aws:ec2/routeTable:RouteTable", "isolated-rt")
	routes := plain(isolated.Inputs["routes"])
	assert.True(t, routes.IsNull() || len(routes.ArrayValue()) == 0)

	public := mocks.named(t, "aws:ec2/routeTable:RouteTable", "public-rt")
	publicRoutes := plain(public.Inputs["routes"]).ArrayValue()
	require.Len(t, publicRoutes, 1)
	route := plain(publicRoutes[0]).ObjectValue()
	assert.Equal(t, "0.0.0.0/0", plain(route["cidrBlock"]).StringValue())
	assert.Equal(t, "blog-igw_id", plain(route["gatewayId"]).StringValue())
}

func TestNetwork_VpcTooSmallForZones(t *testing.T) {
	env := testEnvironment()
	env.VpcCidr = "10.100.0.0/18"

	_, err := runStack(t, env, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create network")
}
