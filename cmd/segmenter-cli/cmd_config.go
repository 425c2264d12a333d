package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"yashubustudio/segmenter/segmenter"
)

const initConfigName = "init-config"

var (
	initConfigPath  string
	initConfigForce bool
)

var initConfigCmd = &cobra.Command{
	Use:   initConfigName,
	Short: "Write a config file with every default filled in",
	Long: `Writes a config file with every default filled in. The format follows the
extension: .yaml/.yml for YAML, anything else for JSON.`,
	Args: cobra.NoArgs,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().StringVar(&initConfigPath, "path", "config.json", "Where to write the config file")
	initConfigCmd.Flags().BoolVar(&initConfigForce, "force", false, "Overwrite an existing file")
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initConfigPath); err == nil && !initConfigForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", initConfigPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := segmenter.SaveConfig(initConfigPath, segmenter.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", initConfigPath)
	return nil
}
