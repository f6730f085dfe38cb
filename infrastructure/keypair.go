package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/secretsmanager"
	"github.com/pulumi/pulumi-tls/sdk/v4/go/tls"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	keyPairName       = "blog-key"
	keyPairSecretName = "ec2-ssh-key/" + keyPairName + "/private"
	keyFileName       = keyPairName + ".pem"
)

// KeyPairResources holds the SSH key pair of the web server and the secret
// storing its private half.
type KeyPairResources struct {
	privateKey *tls.PrivateKey
	keyPair    *ec2.KeyPair
	secret     *secretsmanager.Secret
}

// createKeyPairResources generates an RSA key, registers its public half as an EC2 key
// pair and stores the private PEM in Secrets Manager.
func createKeyPairResources(ctx *pulumi.Context, opts ...pulumi.ResourceOption) (*KeyPairResources, error) {
	privateKey, err := tls.NewPrivateKey(ctx, "web-server-key", &tls.PrivateKeyArgs{
		Algorithm: pulumi.String("RSA"),
		RsaBits:   pulumi.Int(4096),
	}, opts...)
	if err != nil {
		return nil, err
	}

	keyPair, err := ec2.NewKeyPair(ctx, "web-server-key-pair", &ec2.KeyPairArgs{
		KeyName:   pulumi.String(keyPairName),
		PublicKey: privateKey.PublicKeyOpenssh,
		Tags: pulumi.StringMap{
			"Name": pulumi.String(keyPairName),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	secret, err := secretsmanager.NewSecret(ctx, "web-server-key-secret", &secretsmanager.SecretArgs{
		Name:        pulumi.String(keyPairSecretName),
		Description: pulumi.String("Private key of the " + keyPairName + " EC2 key pair"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String(keyPairSecretName),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	_, err = secretsmanager.NewSecretVersion(ctx, "web-server-key-secret-version", &secretsmanager.SecretVersionArgs{
		SecretId:     secret.ID(),
		SecretString: privateKey.PrivateKeyPem,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &KeyPairResources{
		privateKey: privateKey,
		keyPair:    keyPair,
		secret:     secret,
	}, nil
}
