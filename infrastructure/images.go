package main

import (
	_ "embed"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"gopkg.in/yaml.v3"
)

const (
	canonicalOwner   = "099720109477"
	ubuntuImageNames = "ubuntu/images/hvm-ssd/ubuntu-focal-20.04-arm64-server-*"
)

//go:embed images.yaml
var imagesYAML []byte

// parseImageMap decodes a region → AMI id mapping.
func parseImageMap(data []byte) (map[string]string, error) {
	images := map[string]string{}
	if err := yaml.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("parse image map: %w", err)
	}
	return images, nil
}

// resolveImage returns the web server AMI for region. Regions absent from the
// embedded map use the newest Canonical Ubuntu 20.04 arm64 image.
func resolveImage(ctx *pulumi.Context, region string, opts ...pulumi.InvokeOption) (string, error) {
	images, err := parseImageMap(imagesYAML)
	if err != nil {
		return "", err
	}
	if id, ok := images[region]; ok {
		return id, nil
	}

	ami, err := ec2.LookupAmi(ctx, &ec2.LookupAmiArgs{
		Owners:     []string{canonicalOwner},
		MostRecent: pulumi.BoolRef(true),
		Filters: []ec2.GetAmiFilter{
			{
				Name:   "name",
				Values: []string{ubuntuImageNames},
			},
			{
				Name:   "architecture",
				Values: []string{"arm64"},
			},
			{
				Name:   "virtualization-type",
				Values: []string{"hvm"},
			},
		},
	}, opts...)
	if err != nil {
		return "", err
	}

	return ami.Id, nil
}
