package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/rds"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ssm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	auroraEngine        = "aurora-mysql"
	auroraEngineVersion = "8.0.mysql_aurora.3.08.0"
	auroraPort          = 3306
	auroraMinCapacity   = 1
	auroraMaxCapacity   = 4
	ssmParameterPrefix  = "/blog"
)

// DatabaseArgs configures the Aurora Serverless cluster.
type DatabaseArgs struct {
	Network     *NetworkResources
	WebServer   *WebServerResources
	MinCapacity float64
	MaxCapacity float64
}

// DatabaseResources holds the Aurora cluster and the parameters publishing it
type DatabaseResources struct {
	securityGroup     *ec2.SecurityGroup
	subnetGroup       *rds.SubnetGroup
	cluster           *rds.Cluster
	writer            *rds.ClusterInstance
	secretArn         pulumi.StringOutput
	endpointParameter *ssm.Parameter
	secretParameter   *ssm.Parameter
}

// createDatabaseResources creates the Aurora MySQL cluster in the isolated subnets,
// reachable from the web server only.
func createDatabaseResources(ctx *pulumi.Context, args DatabaseArgs, opts ...pulumi.ResourceOption) (*DatabaseResources, error) {
	securityGroup, err := createSecurityGroup(ctx, "database-sg",
		"Allow MySQL access from the blog web server", args.Network.vpc, opts...)
	if err != nil {
		return nil, err
	}

	_, err = allowIngress(ctx, "database-web-server-ingress", ingressArgs{
		securityGroup: securityGroup,
		port:          auroraPort,
		source:        args.WebServer.securityGroup,
		description:   "MySQL from the web server",
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create subnet group for Aurora cluster
	subnetGroup, err := rds.NewSubnetGroup(ctx, "aurora-subnet-group", &rds.SubnetGroupArgs{
		SubnetIds:   args.Network.IsolatedSubnetIds(),
		Description: pulumi.String("Isolated subnets of the blog VPC"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-aurora-subnet-group"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create Aurora cluster; RDS generates the master password and keeps it in Secrets Manager
	cluster, err := rds.NewCluster(ctx, "aurora-cluster", &rds.ClusterArgs{
		ClusterIdentifier:        pulumi.String("blog"),
		Engine:                   pulumi.String(auroraEngine),
		EngineMode:               pulumi.String("provisioned"),
		EngineVersion:            pulumi.String(auroraEngineVersion),
		DatabaseName:             pulumi.String("ghost"),
		MasterUsername:           pulumi.String("root"),
		ManageMasterUserPassword: pulumi.Bool(true),
		DbSubnetGroupName:        subnetGroup.Name,
		VpcSecurityGroupIds:      pulumi.StringArray{securityGroup.ID()},
		Serverlessv2ScalingConfiguration: &rds.ClusterServerlessv2ScalingConfigurationArgs{
			MinCapacity: pulumi.Float64(args.MinCapacity),
			MaxCapacity: pulumi.Float64(args.MaxCapacity),
		},
		EnableHttpEndpoint:      pulumi.Bool(true),
		StorageEncrypted:        pulumi.Bool(true),
		BackupRetentionPeriod:   pulumi.Int(7),
		CopyTagsToSnapshot:      pulumi.Bool(true),
		SkipFinalSnapshot:       pulumi.Bool(false),
		FinalSnapshotIdentifier: pulumi.String("blog-final"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-aurora-cluster"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Create the serverless writer instance
	writer, err := rds.NewClusterInstance(ctx, "aurora-writer", &rds.ClusterInstanceArgs{
		ClusterIdentifier:  cluster.ID(),
		InstanceClass:      pulumi.String("db.serverless"),
		Engine:             cluster.Engine,
		EngineVersion:      cluster.EngineVersion,
		DbSubnetGroupName:  subnetGroup.Name,
		PubliclyAccessible: pulumi.Bool(false),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-aurora-writer"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	secretArn := cluster.MasterUserSecrets.Index(pulumi.Int(0)).SecretArn().Elem()

	// Store Aurora endpoint in SSM Parameter Store
	endpointParameter, err := ssm.NewParameter(ctx, "aurora-endpoint-param", &ssm.ParameterArgs{
		Name:  pulumi.String(ssmParameterPrefix + "/database/endpoint"),
		Type:  pulumi.String("String"),
		Value: cluster.Endpoint,
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-database-endpoint"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Store the credentials secret ARN in SSM Parameter Store
	secretParameter, err := ssm.NewParameter(ctx, "aurora-secret-param", &ssm.ParameterArgs{
		Name:  pulumi.String(ssmParameterPrefix + "/database/secret-arn"),
		Type:  pulumi.String("String"),
		Value: secretArn,
		Tags: pulumi.StringMap{
			"Name": pulumi.String("blog-database-secret-arn"),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Allow the web server to read the credentials
	_, err = iam.NewRolePolicy(ctx, "web-server-database-secret", &iam.RolePolicyArgs{
		Role: args.WebServer.role.Name,
		Policy: secretArn.ApplyT(func(arn string) (string, error) {
			return newPolicyDocument(PolicyStatement{
				Effect:   "Allow",
				Action:   []string{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"},
				Resource: arn,
			}).JSON()
		}).(pulumi.StringOutput),
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &DatabaseResources{
		securityGroup:     securityGroup,
		subnetGroup:       subnetGroup,
		cluster:           cluster,
		writer:            writer,
		secretArn:         secretArn,
		endpointParameter: endpointParameter,
		secretParameter:   secretParameter,
	}, nil
}
