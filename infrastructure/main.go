package main

import (
	"fmt"
	"os"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	logger := newLogger(os.Stderr, defaultLogLevel)

	// The environment is checked before the engine starts; nothing is provisioned
	// when it is invalid.
	env, err := loadEnvironment(os.LookupEnv)
	if err != nil {
		logger.Error().Err(err).Msg("environment validation failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger = newLogger(os.Stderr, env.LogLevel)

	pulumi.Run(func(ctx *pulumi.Context) error {
		stack, err := createBlogStack(ctx, env, logger)
		if err != nil {
			return err
		}

		exportOutputs(ctx, stack)

		return nil
	})
}
