package main

import (
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/jembatan/internal/cli"
	"codeberg.org/snonux/jembatan/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	var proc *processor.Processor
	cli.AddSubcommands(rootCmd, func() (cli.Actions, error) {
		p, err := processor.NewProcessor(flags)
		if err != nil {
			return nil, err
		}
		proc = p
		return p, nil
	})

	// Execute command
	err := rootCmd.Execute()
	if proc != nil {
		proc.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	proc, err := processor.NewProcessor(flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx := cmd.Context()

	// Handle --list-models flag
	if flags.ListModels {
		return proc.ListModels(ctx)
	}

	// Handle batch processing
	if flags.BatchFile != "" {
		return proc.ProcessBatch(ctx)
	}

	if len(args) == 0 {
		return cmd.Help()
	}
	return proc.ProcessText(ctx, args)
}
