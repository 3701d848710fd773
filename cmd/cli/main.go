// Package main provides the mercado-futuro command line tool.
// Cobra builds the command tree:
//
//	mercado predict --symbol AAPL --timeframe 1-week --price 150 --event "Resultados"
//	mercado history --limit 10
//	mercado timeframes
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/mercado-futuro/internal/app"
	"github.com/fleveque/mercado-futuro/internal/collector"
	"github.com/fleveque/mercado-futuro/internal/config"
	"github.com/fleveque/mercado-futuro/internal/model"
	"github.com/fleveque/mercado-futuro/internal/prediction"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "mercado",
		Short: "Predicciones bursátiles asistidas por IA",
		// Errors are already user-facing; usage text would only bury them.
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv(app.ConfigPathEnv), "path to a YAML config file")

	root.AddCommand(predictCmd(&configPath), historyCmd(&configPath), timeframesCmd())
	return root
}

// setup loads config and builds the app. The CLI logs at warn level unless
// debug is configured, so results aren't drowned in startup noise.
func setup(configPath string) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := zap.NewNop()
	if cfg.Log.Level == "debug" {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}

	return app.New(cfg, logger)
}

// signalContext is cancelled on Ctrl+C, which aborts an in-flight prediction.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func predictCmd(configPath *string) *cobra.Command {
	var (
		raw    collector.RawInput
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predice el movimiento de una acción",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validation happens before any config or network access.
			req, err := collector.Collect(raw)
			if err != nil {
				var fe *collector.FieldError
				if errors.As(err, &fe) {
					return fmt.Errorf("--%s: %s", flagFor(fe.Field), fe.Message)
				}
				return err
			}

			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = a.Logger.Sync() }()

			ctx, cancel := signalContext()
			defer cancel()

			res, err := a.Service.Predict(ctx, req)
			if err != nil {
				return errors.New(prediction.UserMessage(err, a.Config.LLM.APIKeyEnv()))
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"request": req, "result": res})
			}
			printResult(cmd.OutOrStdout(), req, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Symbol, "symbol", "", "stock symbol, e.g. AAPL")
	cmd.Flags().StringVar(&raw.Timeframe, "timeframe", string(model.DefaultTimeframe), "prediction timeframe (see 'timeframes')")
	cmd.Flags().StringVar(&raw.CurrentPrice, "price", "", "optional current price")
	cmd.Flags().StringVar(&raw.ImportantEvent, "event", "", "optional important event to weigh")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// flagFor maps collector field names to flag names.
func flagFor(field string) string {
	if field == collector.FieldCurrentPrice {
		return "price"
	}
	return field
}

func historyCmd(configPath *string) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Muestra las predicciones más recientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			a, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.Service.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			printHistory(cmd.OutOrStdout(), recs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of predictions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the history as JSON")
	return cmd
}

func timeframesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeframes",
		Short: "Lista los marcos temporales disponibles",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, tf := range model.AllTimeframes {
				marker := ""
				if tf == model.DefaultTimeframe {
					marker = "(por defecto)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", tf, tf.Label(), marker)
			}
			w.Flush()
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(out io.Writer, req model.PredictionRequest, res *model.PredictionResult) {
	fmt.Fprintf(out, "%s · %s\n\n", req.Symbol, req.Timeframe.Label())
	fmt.Fprintf(out, "Predicción:  %s\n", res.Prediction.Label())
	if res.Suggestion != nil {
		fmt.Fprintf(out, "Sugerencia:  %s\n", *res.Suggestion)
	}
	if res.ProjectedPrice != nil {
		fmt.Fprintf(out, "Precio proyectado: %s\n", *res.ProjectedPrice)
	}
	fmt.Fprintf(out, "\nRazonamiento:\n%s\n", res.Reasoning)

	if len(res.GroundingSources) > 0 {
		fmt.Fprintln(out, "\nFuentes:")
		for _, s := range res.GroundingSources {
			fmt.Fprintf(out, "  - %s <%s>\n", s.DisplayTitle(), s.URI)
		}
	}
}

func printHistory(out io.Writer, recs []model.PredictionRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No hay predicciones guardadas.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFECHA\tSÍMBOLO\tMARCO\tPREDICCIÓN\tSUGERENCIA\tPRECIO")
	for _, r := range recs {
		sugg := "-"
		if r.Suggestion != nil {
			sugg = string(*r.Suggestion)
		}
		price := "-"
		if r.CurrentPrice != nil {
			price = strconv.FormatFloat(*r.CurrentPrice, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Symbol, r.Timeframe,
			r.Prediction.Label(), sugg, price)
	}
	w.Flush()
}
