package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cgps-group/AMRIE/internal/domain"
	"github.com/cgps-group/AMRIE/internal/setup"
)

func interpretCmd() *cobra.Command {
	var (
		organism   string
		antibiotic string
		category   string
		value      string
		unit       string
		related    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "interpret",
		Short: "Interpret one AST result",
		Long: `Interpret a single observation and print the decision as JSON.

Give either --category (S, I or R) or --value with an optional qualifier
such as "<=0.5" or ">32". Companion results on the same isolate are passed
with --related, for example --related OXA=R,ERY=R.`,
		Example: `  amrie interpret --organism sau --antibiotic AMP_NM --category S --related OXA=R
  amrie interpret --organism eco --antibiotic CIP_NM --value "<=0.25" --unit mg/L`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (category == "") == (value == "") {
				return errors.New("exactly one of --category or --value is required")
			}

			req := domain.Request{
				OrganismCode:   organism,
				AntibioticCode: antibiotic,
				Raw:            domain.RawResult{Category: category, Value: value, Unit: unit},
			}
			if len(related) > 0 {
				req.Related = make(map[string]domain.Category, len(related))
				for code, c := range related {
					req.Related[code] = domain.Category(c)
				}
			}

			rt, err := setup.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			decision, err := rt.Interpreter.Interpret(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decision)
		},
	}

	cmd.Flags().StringVar(&organism, "organism", "", "organism code")
	cmd.Flags().StringVar(&antibiotic, "antibiotic", "", "compound antibiotic code, e.g. CIP_NM")
	cmd.Flags().StringVar(&category, "category", "", "reported category (S, I, R)")
	cmd.Flags().StringVar(&value, "value", "", "measured value with optional qualifier")
	cmd.Flags().StringVar(&unit, "unit", "", "measurement unit")
	cmd.Flags().StringToStringVar(&related, "related", nil, "companion results as CODE=CATEGORY")
	_ = cmd.MarkFlagRequired("organism")
	_ = cmd.MarkFlagRequired("antibiotic")

	cmd.AddCommand(interpretBatchCmd())

	return cmd
}

func interpretBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Interpret a JSON array of requests",
		Long:  `Read a JSON array of requests from a file, or from stdin when the file is "-", and print one outcome per request.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open batch file: %w", err)
				}
				defer f.Close()
				in = f
			}

			var reqs []domain.Request
			if err := json.NewDecoder(in).Decode(&reqs); err != nil {
				return fmt.Errorf("failed to parse batch: %w", err)
			}

			rt, err := setup.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			return writeJSON(cmd.OutOrStdout(), rt.Interpreter.InterpretBatch(cmd.Context(), reqs))
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
