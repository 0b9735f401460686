package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/formatter"
	"github.com/yildizm/catform/internal/prompt"
)

// newPresetsCommand creates the presets command with subcommands
func newPresetsCommand() *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage stored form presets",
		Long: `List, inspect, save and delete the named parameter sets stored by the backend.

A preset holds the input files, template, output file, prettify flag,
validation type and schema of a form.`,
	}

	presetsCmd.AddCommand(newPresetsListCommand())
	presetsCmd.AddCommand(newPresetsShowCommand())
	presetsCmd.AddCommand(newPresetsSaveCommand())
	presetsCmd.AddCommand(newPresetsDeleteCommand())

	return presetsCmd
}

func newPresetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List preset names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			s, err := openSession(ctx, cfg, newLogger("presets"))
			if err != nil {
				return err
			}
			defer s.Close()

			s.ctrl.RefreshPresetNames(ctx)
			if err := s.alert(); err != nil {
				return err
			}

			out, err := formatter.New(getOutputFormat(cfg), useColor(cfg)).FormatNames(s.ctrl.State().AllPresetNames)
			if err != nil {
				return fmt.Errorf("failed to format presets: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newPresetsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show the parameters stored in a preset",
		Long: `Show the parameters stored in a preset.

Without a name, the stored presets are offered for selection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			s, err := openSession(ctx, cfg, newLogger("presets"))
			if err != nil {
				return err
			}
			defer s.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			} else {
				s.ctrl.RefreshPresetNames(ctx)
				if err := s.alert(); err != nil {
					return err
				}
				name, err = prompt.NewConsole().SelectPreset(ctx, s.ctrl.State().AllPresetNames)
				if err != nil {
					return err
				}
				if name == "" {
					return nil
				}
			}

			s.ctrl.LoadPreset(ctx, name)
			if err := s.alert(); err != nil {
				return err
			}

			st := s.ctrl.State()
			out, err := formatter.New(getOutputFormat(cfg), useColor(cfg)).FormatPreset(name, st.Params())
			if err != nil {
				return fmt.Errorf("failed to format preset: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newPresetsSaveCommand() *cobra.Command {
	var (
		fields formFlags
		name   string
		from   string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save form parameters as a new preset",
		Long: `Save form parameters as a new preset.

The form is filled from --from (an existing preset) and the field flags. The
same checks as in the interactive form apply, and names must be new. Without
--name the name is asked on the terminal.

Examples:
  catform presets save --name spring -i products.csv -t catalog.xml.j2
  catform presets save --from spring --name spring-xsd --validation xml --schema bmecat.xsd`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			namer := withConsole
			if name != "" {
				namer = func(svc form.RenderingService) form.RenderingService {
					return &fixedName{RenderingService: svc, name: name}
				}
			}

			s, err := openSession(ctx, cfg, newLogger("presets"), namer)
			if err != nil {
				return err
			}
			defer s.Close()

			// the duplicate check needs the current names
			s.ctrl.RefreshPresetNames(ctx)
			if from != "" {
				s.ctrl.LoadPreset(ctx, from)
			}
			if err := s.alert(); err != nil {
				return err
			}
			if err := fields.apply(cmd, s.ctrl); err != nil {
				return err
			}

			s.ctrl.SavePreset(ctx)
			if err := s.alert(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Preset %q saved\n", s.ctrl.State().ActivePreset)
			return nil
		},
	}

	fields.bind(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "preset name")
	cmd.Flags().StringVar(&from, "from", "", "start from an existing preset")

	return cmd
}

func newPresetsDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			if !yes {
				ok, err := prompt.NewConsole().Confirm(ctx, fmt.Sprintf("Delete preset %q?", name))
				if err != nil || !ok {
					return err
				}
			}

			s, err := openSession(ctx, cfg, newLogger("presets"))
			if err != nil {
				return err
			}
			defer s.Close()

			s.ctrl.DeletePreset(ctx, name)
			if err := s.alert(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Preset %q deleted\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}
