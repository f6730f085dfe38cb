package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const childEnv = "BLOG_MAIN_CHILD"

func TestMissingAccountExitsBeforeProvisioning(t *testing.T) {
	if os.Getenv(childEnv) == "1" {
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestMissingAccountExitsBeforeProvisioning$")
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "AWS_") || strings.HasPrefix(kv, "PULUMI_") {
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	cmd.Env = append(cmd.Env,
		childEnv+"=1",
		"AWS_REGION="+testRegion,
		"DOMAIN_NAME="+testDomain,
		"VPC_CIDR="+testCidr,
		"THEME_REPOSITORY=victorsmirnov/blog-theme",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected non-zero exit, got %v", err)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, stderr.String(), "AWS_ACCOUNT")
	assert.Contains(t, stderr.String(), "environment validation failed")
}
