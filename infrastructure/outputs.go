package main

import (
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// downloadKeyCommand fetches the private key from Secrets Manager into a file
// readable only by the caller.
func downloadKeyCommand() string {
	return fmt.Sprintf(
		"aws secretsmanager get-secret-value --secret-id %s --query SecretString --output text > %s && chmod 400 %s",
		keyPairSecretName, keyFileName, keyFileName)
}

func sshCommand(host string) string {
	return fmt.Sprintf("ssh -i %s -o IdentitiesOnly=yes %s@%s", keyFileName, sshUser, host)
}

// exportOutputs publishes the operator facing stack outputs.
func exportOutputs(ctx *pulumi.Context, stack *BlogStack) {
	publicIP := stack.webServer.instance.PublicIp

	ctx.Export("webServerPublicIp", publicIP)
	ctx.Export("keyName", stack.keyPair.keyPair.KeyName)
	ctx.Export("downloadKeyCommand", pulumi.String(downloadKeyCommand()))
	ctx.Export("sshCommand", publicIP.ApplyT(sshCommand).(pulumi.StringOutput))
	ctx.Export("nameServers", stack.hostedZone.zone.NameServers)
	ctx.Export("distributionDomainName", stack.distribution.distribution.DomainName)
	ctx.Export("databaseEndpoint", stack.database.cluster.Endpoint)
	ctx.Export("deploymentRoleArn", stack.deployment.role.Arn)
	if stack.vpn != nil {
		ctx.Export("clientVpnEndpointId", stack.vpn.endpoint.ID())
	}
}
