package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/brogergvhs/cuudl/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var flagInitYes bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Default configuration:")
		config.DefaultConfig().Print()
		fmt.Println()

		if !flagInitYes {
			prompt := promptui.Prompt{
				Label:     "Create Default config in " + config.ConfigsDir(),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}
		}

		path, err := config.InitDefaultConfig()
		if errors.Is(err, os.ErrExist) {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("It is now the active config.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}

		fmt.Println("Config created at:", path)
		fmt.Println("This config is now active (label: Default).")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&flagInitYes, "yes", "y", false, "do not ask for confirmation")
	configCmd.AddCommand(configInitCmd)
}
