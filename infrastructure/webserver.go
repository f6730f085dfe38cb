package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	webServerInstanceType = "t4g.micro"
	sshPort               = 22
	sshUser               = "ubuntu"
)

// WebServerArgs configures the Ghost web server.
type WebServerArgs struct {
	Network *NetworkResources
	KeyPair *KeyPairResources
	ImageID string
	Region  string
	Account string
}

// WebServerResources holds the web server instance and its identity
type WebServerResources struct {
	securityGroup   *ec2.SecurityGroup
	role            *iam.Role
	instanceProfile *iam.InstanceProfile
	instance        *ec2.Instance
}

// createWebServerResources creates the EC2 instance in the first public subnet.
func createWebServerResources(ctx *pulumi.Context, args WebServerArgs, opts ...pulumi.ResourceOption) (*WebServerResources, error) {
	// Create security group; the application port is opened by the load balancer
	securityGroup, err := createSecurityGroup(ctx, "web-server-sg",
		"Allow SSH and Ghost app access to web site instance", args.Network.vpc, opts...)
	if err != nil {
		return nil, err
	}

	_, err = allowIngress(ctx, "web-server-ssh-ingress", ingressArgs{
		securityGroup: securityGroup,
		port:          sshPort,
		cidrBlocks:    []string{"0.0.0.0/0"},
		description:   "SSH access",
	}, opts...)
	if err != nil {
		return nil, err
	}

	trustPolicy, err := assumeRoleForService("ec2.amazonaws.com").JSON()
	if err != nil {
		return nil, err
	}

	// Create instance role
	role, err := iam.NewRole(ctx, "web-server-role", &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(trustPolicy),
		Description:      pulumi.String("Role of the blog web server instance"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-web-server-role"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	for _, attachment := range []struct{ name, policy string }{
		{"web-server-cloudwatch-agent", "CloudWatchAgentServerPolicy"},
		{"web-server-ssm-core", "AmazonSSMManagedInstanceCore"},
	} {
		_, err = iam.NewRolePolicyAttachment(ctx, attachment.name, &iam.RolePolicyAttachmentArgs{
			Role:      role.Name,
			PolicyArn: pulumi.String(managedPolicyArn(attachment.policy)),
		}, opts...)
		if err != nil {
			return nil, err
		}
	}

	parameterPolicy, err := newPolicyDocument(PolicyStatement{
		Effect:   "Allow",
		Action:   []string{"ssm:GetParameter", "ssm:GetParameters", "ssm:GetParametersByPath"},
		Resource: ssmParameterArn(args.Region, args.Account, ssmParameterPrefix+"/*"),
	}).JSON()
	if err != nil {
		return nil, err
	}

	// Allow the instance to read its configuration parameters
	_, err = iam.NewRolePolicy(ctx, "web-server-parameters", &iam.RolePolicyArgs{
		Role:   role.Name,
		Policy: pulumi.String(parameterPolicy),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create instance profile
	instanceProfile, err := iam.NewInstanceProfile(ctx, "web-server-profile", &iam.InstanceProfileArgs{
		Role: role.Name,
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-web-server-profile"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create EC2 instance
	instance, err := ec2.NewInstance(ctx, "web-server", &ec2.InstanceArgs{
		Ami:                      pulumi.String(args.ImageID),
		InstanceType:             pulumi.String(webServerInstanceType),
		SubnetId:                 args.Network.publicSubnets[0].ID(),
		VpcSecurityGroupIds:      pulumi.StringArray{securityGroup.ID()},
		AssociatePublicIpAddress: pulumi.Bool(true),
		KeyName:                  args.KeyPair.keyPair.KeyName,
		IamInstanceProfile:       instanceProfile.Name,
		MetadataOptions: &ec2.InstanceMetadataOptionsArgs{
			HttpTokens: pulumi.String("required"),
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-web-server"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &WebServerResources{
		securityGroup:   securityGroup,
		role:            role,
		instanceProfile: instanceProfile,
		instance:        instance,
	}, nil
}
