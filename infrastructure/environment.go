package main

import (
	"errors"
	"fmt"
	"net/netip"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/go-playground/validator/v10"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

const (
	defaultWebServerPort     = 2369
	defaultAvailabilityZones = 3
	defaultLogLevel          = "info"
)

// Environment is the validated process environment.
type Environment struct {
	Account           string `env:"AWS_ACCOUNT" validate:"required,numeric,len=12"`
	Region            string `env:"AWS_REGION" validate:"required,region"`
	DomainName        string `env:"DOMAIN_NAME" validate:"required,fqdn"`
	HostedZoneName    string `env:"HOSTED_ZONE_NAME" validate:"omitempty,fqdn"`
	VpcCidr           string `env:"VPC_CIDR" validate:"required,vpccidr"`
	GoogleVerify      string `env:"GOOGLE_VERIFY"`
	ThemeRepository   string `env:"THEME_REPOSITORY" validate:"required,repository"`
	VpnCertificateArn string `env:"VPN_CLIENT_CERTIFICATE_ARN" validate:"required_with=VpnCidr,omitempty,arn"`
	VpnCidr           string `env:"VPN_CIDR" validate:"required_with=VpnCertificateArn,omitempty,cidrv4"`
	LogLevel          string `env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
}

// VpnEnabled reports whether the Client VPN endpoint should be provisioned.
func (e *Environment) VpnEnabled() bool {
	return e.VpnCertificateArn != "" && e.VpnCidr != ""
}

// Settings are the environment merged with the stack's context parameters.
type Settings struct {
	Environment *Environment `validate:"-"`

	GoogleVerify      string `config:"googleVerify" validate:"required"`
	CertificateArn    string `config:"certificateArn" validate:"omitempty,arn"`
	WebServerPort     int    `config:"webServerPort" validate:"min=1,max=65535"`
	AvailabilityZones int    `config:"availabilityZones" validate:"min=2,max=6"`
}

// FieldError describes one rejected variable or parameter.
type FieldError struct {
	Name  string
	Rule  string
	Value string
}

func (e FieldError) String() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: failed %q (value is empty)", e.Name, e.Rule)
	}
	return fmt.Sprintf("%s: failed %q (value %q)", e.Name, e.Rule, e.Value)
}

// ValidationError is returned when the environment or the context parameters do not
// satisfy the schema. Its message lists every offending field.
type ValidationError struct {
	Source string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid %s:", e.Source)
	for _, f := range e.Fields {
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	return b.String()
}

var validate = validator.New()

var (
	regionRegex     = regexp.MustCompile(`^[a-z]{2}(-gov|-iso[a-z]*)?-[a-z]+-\d$`)
	repositoryRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		if name := f.Tag.Get("config"); name != "" {
			return name
		}
		return f.Name
	})
	validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return regionRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("repository", func(fl validator.FieldLevel) bool {
		return repositoryRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		_, err := arn.Parse(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("vpccidr", func(fl validator.FieldLevel) bool {
		prefix, err := netip.ParsePrefix(fl.Field().String())
		if err != nil {
			return false
		}
		return prefix.Addr().Is4() && prefix.Bits() <= 16
	})
	validate.RegisterStructValidation(validateDomainInZone, Environment{})
}

// validateDomainInZone requires DOMAIN_NAME to be the hosted zone apex or a name below it.
// Malformed names are left to their field rules.
func validateDomainInZone(sl validator.StructLevel) {
	env := sl.Current().Interface().(Environment)
	if env.HostedZoneName == "" {
		return
	}
	v := sl.Validator()
	if v.Var(env.DomainName, "fqdn") != nil || v.Var(env.HostedZoneName, "fqdn") != nil {
		return
	}

	domain := strings.ToLower(strings.TrimSuffix(env.DomainName, "."))
	zone := strings.ToLower(strings.TrimSuffix(env.HostedZoneName, "."))
	if domain != zone && !strings.HasSuffix(domain, "."+zone) {
		sl.ReportError(env.DomainName, "DOMAIN_NAME", "DomainName", "inzone", "HOSTED_ZONE_NAME")
	}
}

// loadEnvironment reads and validates the process environment through lookup.
func loadEnvironment(lookup func(string) (string, bool)) (*Environment, error) {
	env := &Environment{
		Account:           getEnv(lookup, "AWS_ACCOUNT", ""),
		Region:            getEnv(lookup, "AWS_REGION", ""),
		DomainName:        getEnv(lookup, "DOMAIN_NAME", ""),
		HostedZoneName:    getEnv(lookup, "HOSTED_ZONE_NAME", ""),
		VpcCidr:           getEnv(lookup, "VPC_CIDR", ""),
		GoogleVerify:      getEnv(lookup, "GOOGLE_VERIFY", ""),
		ThemeRepository:   getEnv(lookup, "THEME_REPOSITORY", ""),
		VpnCertificateArn: getEnv(lookup, "VPN_CLIENT_CERTIFICATE_ARN", ""),
		VpnCidr:           getEnv(lookup, "VPN_CIDR", ""),
		LogLevel:          getEnv(lookup, "LOG_LEVEL", defaultLogLevel),
	}

	if err := validateStruct("environment", env); err != nil {
		return nil, err
	}

	if env.HostedZoneName == "" {
		env.HostedZoneName = env.DomainName
	}

	return env, nil
}

// loadSettings merges the stack's context parameters over the environment.
func loadSettings(ctx *pulumi.Context, env *Environment) (*Settings, error) {
	cfg := config.New(ctx, "")

	settings := &Settings{
		Environment:       env,
		GoogleVerify:      env.GoogleVerify,
		CertificateArn:    cfg.Get("certificateArn"),
		WebServerPort:     defaultWebServerPort,
		AvailabilityZones: defaultAvailabilityZones,
	}
	if v := cfg.Get("googleVerify"); v != "" {
		settings.GoogleVerify = v
	}

	var malformed []FieldError
	for _, param := range []struct {
		key string
		dst *int
	}{
		{"webServerPort", &settings.WebServerPort},
		{"availabilityZones", &settings.AvailabilityZones},
	} {
		raw := cfg.Get(param.key)
		if raw == "" {
			continue
		}
		v, err := cfg.TryInt(param.key)
		if err != nil {
			malformed = append(malformed, FieldError{Name: param.key, Rule: "int", Value: raw})
			continue
		}
		*param.dst = v
	}

	err := validateStruct("context parameters", settings)
	if err == nil && len(malformed) == 0 {
		return settings, nil
	}

	verr := &ValidationError{Source: "context parameters"}
	if err != nil && !errors.As(err, &verr) {
		return nil, err
	}
	verr.Fields = append(verr.Fields, malformed...)
	for i, f := range verr.Fields {
		if f.Name == "googleVerify" {
			verr.Fields[i].Name = "googleVerify/GOOGLE_VERIFY"
		}
	}
	sort.SliceStable(verr.Fields, func(i, j int) bool {
		return verr.Fields[i].Name < verr.Fields[j].Name
	})
	return nil, verr
}

func validateStruct(source string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", source, err)
	}

	verr := &ValidationError{Source: source}
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		verr.Fields = append(verr.Fields, FieldError{
			Name:  fe.Field(),
			Rule:  rule,
			Value: fmt.Sprint(fe.Value()),
		})
	}
	sort.SliceStable(verr.Fields, func(i, j int) bool {
		return verr.Fields[i].Name < verr.Fields[j].Name
	})
	return verr
}

func getEnv(lookup func(string) (string, bool), key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}
