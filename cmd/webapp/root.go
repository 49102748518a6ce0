package main

import (
	"github.com/spf13/cobra"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/config"
)

type rootOptions struct {
	envFiles []string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.envFiles...)
}

var opts = &rootOptions{}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "webapp",
		Short:         "File upload service backed by S3 and a relational metadata store",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version + "." + commit,
		// running the binary without a subcommand serves
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load before reading the environment (default .env)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("webapp %s (%s)\n", version, commit)
		},
	}
}
