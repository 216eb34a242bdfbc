package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile [canvas-file]",
		Short: "Compile a canvas file to SQL",
		Long: `Load a canvas file, compile it, and print the generated SQL.

A missing DML target or mapping does not fail the compile: the
degradation is printed as SQL comment text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			s, err := loadSession(cfg, canvasPath(cfg, args))
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintln(cmd.OutOrStdout(), s.SQL())
			return nil
		},
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [canvas-file]",
		Short: "Compile a canvas file and syntax-check the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			s, err := loadSession(cfg, canvasPath(cfg, args))
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.Validate()
			if !res.OK {
				return fmt.Errorf("invalid SQL: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}
