package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/formatter"
)

func newValidationTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validation-types",
		Short: "List the validation modes the backend supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			s, err := openSession(ctx, cfg, newLogger("validation"))
			if err != nil {
				return err
			}
			defer s.Close()

			options, err := s.client.ValidationTypes(ctx)
			if err != nil {
				return fmt.Errorf("failed to load validation types: %w", err)
			}

			out, err := formatter.New(getOutputFormat(cfg), useColor(cfg)).FormatValidationTypes(options)
			if err != nil {
				return fmt.Errorf("failed to format validation types: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
