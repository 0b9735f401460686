package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/config"
	"github.com/yildizm/catform/internal/form"
	"github.com/yildizm/catform/internal/monitor"
)

var errCatalogNotGenerated = errors.New("catalog was not generated")

func newRenderCommand() *cobra.Command {
	var (
		fields     formFlags
		preset     string
		outputFile string
		stats      bool
		runConfig  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a catalog without the interactive form",
		Long: `Fill the form from flags (and optionally a preset) and submit it.

The same checks as in the interactive form apply: at least one input file and
a template are required, and xml validation needs a schema. Flags override
values loaded from --preset. Without --output-file the backend asks for the
output location.

--run-config reads a YAML run file with input_files, template_file and
output_file (all required) plus optional beautify_output and schema_file.
A schema_file turns on xml validation. Flags override the run file.

Examples:
  catform render -i products.csv -i prices.csv -t catalog.xml.j2 --output-file out.xml
  catform render --preset spring --validation xml --schema bmecat.xsd
  catform render --run-config nightly.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd)
			defer stop()

			var run *config.RunFile
			if runConfig != "" {
				if run, err = config.LoadRunFile(runConfig); err != nil {
					return err
				}
				if outputFile == "" {
					outputFile = run.OutputFile
				}
			}

			tracker := monitor.NewTracker()
			wrap := []wrapService{tracker.Instrument}
			if outputFile != "" {
				path := absPath(outputFile)
				wrap = append(wrap, func(svc form.RenderingService) form.RenderingService {
					return &fixedOutput{RenderingService: svc, path: path}
				})
			}

			s, err := openSession(ctx, cfg, newLogger("render"), wrap...)
			if err != nil {
				return err
			}
			defer s.Close()

			echo := &logEcho{out: cmd.OutOrStdout()}
			defer s.ctrl.Store().Subscribe(echo.onState)()

			if preset != "" {
				s.ctrl.LoadPreset(ctx, preset)
				if err := s.alert(); err != nil {
					return err
				}
			}
			if run != nil {
				applyRunFile(run, s.ctrl)
			}
			if err := fields.apply(cmd, s.ctrl); err != nil {
				return err
			}

			s.ctrl.SubmitForm(ctx)
			outcome := renderOutcome(s.ctrl.State())

			if stats {
				if err := printStats(cmd.ErrOrStderr(), tracker, getOutputFormat(cfg)); err != nil {
					return err
				}
			}
			return outcome
		},
	}

	fields.bind(cmd)
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "load this preset before applying flags")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "write the catalog here instead of asking the backend")
	cmd.Flags().BoolVar(&stats, "stats", false, "print backend call timings to stderr when done")
	cmd.Flags().StringVar(&runConfig, "run-config", "", "YAML run file with input_files, template_file and output_file")

	return cmd
}

// renderOutcome succeeds only when the last log line reports a generated catalog
func renderOutcome(s form.State) error {
	log := strings.TrimRight(s.Log, "\n")
	if strings.HasSuffix(log, form.MsgCatalogGenerated) {
		return nil
	}
	if s.ShowModal && s.ModalMsg != form.MsgCatalogGenerated {
		return errors.New(s.ModalMsg)
	}
	return errCatalogNotGenerated
}

// printStats writes the tracker's report in the given output format
func printStats(w io.Writer, tracker *monitor.Tracker, format string) error {
	report, err := monitor.FormatReport(tracker.Snapshot(), monitor.ReportFormat(format))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, report)
	return err
}

// applyRunFile fills the form from a run file
func applyRunFile(run *config.RunFile, ctrl *form.Controller) {
	inputs := make([]string, 0, len(run.InputFiles))
	for _, in := range run.InputFiles {
		inputs = append(inputs, absPath(in))
	}
	ctrl.SetInputFiles(inputs)
	ctrl.SetTemplate(absPath(run.TemplateFile))
	ctrl.SetPrettify(run.BeautifyOutput)
	if run.SchemaFile != "" {
		ctrl.SetValidationType(form.ValidationXML)
		ctrl.SetValidationFile(absPath(run.SchemaFile))
	}
}
