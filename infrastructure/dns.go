package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/acm"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// HostedZoneArgs configures the public hosted zone.
type HostedZoneArgs struct {
	ZoneName     string
	GoogleVerify string
}

// HostedZoneResources holds the public zone and its site verification record
type HostedZoneResources struct {
	zone         *route53.Zone
	verification *route53.Record
}

// createHostedZoneResources creates the public zone with the apex TXT verification record.
func createHostedZoneResources(ctx *pulumi.Context, args HostedZoneArgs, opts ...pulumi.ResourceOption) (*HostedZoneResources, error) {
	zone, err := route53.NewZone(ctx, "hosted-zone", &route53.ZoneArgs{
		Name:    pulumi.String(args.ZoneName),
		Comment: pulumi.String("Blog public zone"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String(args.ZoneName),
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	verification, err := route53.NewRecord(ctx, "google-verification", &route53.RecordArgs{
		ZoneId:  zone.ZoneId,
		Name:    pulumi.String(args.ZoneName),
		Type:    pulumi.String("TXT"),
		Ttl:     pulumi.Int(1800),
		Records: pulumi.StringArray{pulumi.String(args.GoogleVerify)},
	}, opts...)
	if err != nil {
		return nil, err
	}

	return &HostedZoneResources{
		zone:         zone,
		verification: verification,
	}, nil
}

// CertificateArgs configures a DNS-validated ACM certificate.
type CertificateArgs struct {
	DomainName              string
	SubjectAlternativeNames []string
	Zone                    *route53.Zone
}

// validationOption picks the validation record ACM issued for name.
func validationOption(options acm.CertificateDomainValidationOptionArrayOutput, name string) acm.CertificateDomainValidationOptionOutput {
	return options.ApplyT(func(all []acm.CertificateDomainValidationOption) (acm.CertificateDomainValidationOption, error) {
		for _, option := range all {
			if option.DomainName != nil && *option.DomainName == name {
				return option, nil
			}
		}
		return acm.CertificateDomainValidationOption{}, fmt.Errorf("no validation record issued for %s", name)
	}).(acm.CertificateDomainValidationOptionOutput)
}

// createValidatedCertificate requests a certificate for DomainName and its alternative
// names, publishes one validation record per name in Zone and returns the ARN once issued.
func createValidatedCertificate(ctx *pulumi.Context, name string, args CertificateArgs, opts ...pulumi.ResourceOption) (pulumi.StringOutput, error) {
	certificate, err := acm.NewCertificate(ctx, name, &acm.CertificateArgs{
		DomainName:              pulumi.String(args.DomainName),
		SubjectAlternativeNames: pulumi.ToStringArray(args.SubjectAlternativeNames),
		ValidationMethod:        pulumi.String("DNS"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String(args.DomainName),
		},
	}, opts...)
	if err != nil {
		return pulumi.StringOutput{}, err
	}

	names := append([]string{args.DomainName}, args.SubjectAlternativeNames...)
	fqdns := make(pulumi.StringArray, 0, len(names))
	for i, domain := range names {
		option := validationOption(certificate.DomainValidationOptions, domain)
		record, err := route53.NewRecord(ctx, fmt.Sprintf("%s-validation-%d", name, i+1), &route53.RecordArgs{
			ZoneId:         args.Zone.ZoneId,
			Name:           option.ResourceRecordName().Elem(),
			Type:           option.ResourceRecordType().Elem(),
			Records:        pulumi.StringArray{option.ResourceRecordValue().Elem()},
			Ttl:            pulumi.Int(60),
			AllowOverwrite: pulumi.Bool(true),
		}, opts...)
		if err != nil {
			return pulumi.StringOutput{}, err
		}
		fqdns = append(fqdns, record.Fqdn)
	}

	validation, err := acm.NewCertificateValidation(ctx, name+"-validation", &acm.CertificateValidationArgs{
		CertificateArn:        certificate.Arn,
		ValidationRecordFqdns: fqdns,
	}, opts...)
	if err != nil {
		return pulumi.StringOutput{}, err
	}

	return validation.CertificateArn, nil
}

// AliasArgs configures an A-alias record.
type AliasArgs struct {
	Zone         *route53.Zone
	RecordName   string
	TargetName   pulumi.StringInput
	TargetZoneId pulumi.StringInput
}

func createAliasRecord(ctx *pulumi.Context, name string, args AliasArgs, opts ...pulumi.ResourceOption) (*route53.Record, error) {
	return route53.NewRecord(ctx, name, &route53.RecordArgs{
		ZoneId: args.Zone.ZoneId,
		Name:   pulumi.String(args.RecordName),
		Type:   pulumi.String("A"),
		Aliases: route53.RecordAliasArray{
			&route53.RecordAliasArgs{
				Name:                 args.TargetName,
				ZoneId:               args.TargetZoneId,
				EvaluateTargetHealth: pulumi.Bool(false),
			},
		},
	}, opts...)
}
