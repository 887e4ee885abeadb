package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	_ "time/tzdata" // launch time zones in minimal containers

	ceilingcheck "flightwx/agents/ceiling-check"
	"flightwx/internal/models"
	"flightwx/shared/config"
	"flightwx/shared/logger"
	"flightwx/shared/scheduler"
	"flightwx/shared/storage"

	"github.com/spf13/cobra"
)

// errNoGo makes evaluate exit with status 2 when the verdict is NO_GO
var errNoGo = errors.New("verdict is NO_GO")

var configFile string

var rootCmd = &cobra.Command{
	Use:   "flightwx",
	Short: "Ceiling go/no-go checks for aerial imagery collection flights",
	Long: `flightwx fetches METARs around a launch airport and decides whether every
reporting station's cloud base clears the collection altitude plus a safety buffer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			os.Setenv("CONFIG_FILE", configFile)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ceiling check on its cron schedule with the health server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(func(ctx context.Context, s *scheduler.Scheduler, agent *ceilingcheck.CeilingAgent) error {
			fmt.Println("Starting scheduler...")
			return s.Start(ctx)
		})
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single ceiling check and print the verdict",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(func(ctx context.Context, s *scheduler.Scheduler, agent *ceilingcheck.CeilingAgent) error {
			fmt.Println("Running once...")
			if err := agent.Initialize(); err != nil {
				return fmt.Errorf("failed to initialize agent: %w", err)
			}
			if err := s.RunOnce(ctx); err != nil {
				return fmt.Errorf("failed to run: %w", err)
			}
			if report := s.Monitor().LatestReport(); report != nil {
				fmt.Println(renderVerdict(report.Verdict, report.Summary, report.TAF, report.SunWindow))
			}
			return nil
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a saved provider payload offline",
	Long: `Evaluate a METAR payload saved from aviationweather.gov (JSON) or the ADDS
dataserver (XML) without touching the network. Exits 2 when the verdict is NO_GO.

Examples:
  flightwx evaluate --file metars.json
  flightwx evaluate --file metars.xml --format xml --altitude 9500 --radius 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		params := models.DefaultFlightParameters()
		params.CollectionAltitudeFtMSL, _ = cmd.Flags().GetFloat64("altitude")
		params.SafetyBufferFt, _ = cmd.Flags().GetFloat64("buffer")
		params.SearchRadiusNM, _ = cmd.Flags().GetFloat64("radius")
		params.LaunchPoint.Latitude, _ = cmd.Flags().GetFloat64("lat")
		params.LaunchPoint.Longitude, _ = cmd.Flags().GetFloat64("lon")

		payload, err := readPayload(path, cmd.InOrStdin())
		if err != nil {
			return err
		}

		verdict, err := ceilingcheck.Assess(payload, format, params)
		if err != nil {
			return err
		}

		switch output {
		case "json":
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(verdict); err != nil {
				return fmt.Errorf("failed to encode verdict: %w", err)
			}
		default:
			fmt.Fprintln(cmd.OutOrStdout(), renderVerdict(verdict, ceilingcheck.Summarize(verdict, params), nil, nil))
		}

		if !verdict.IsGo() {
			return errNoGo
		}
		return nil
	},
}

func init() {
	defaults := models.DefaultFlightParameters()

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default $CONFIG_FILE or config.yaml)")

	evaluateCmd.Flags().StringP("file", "f", "", "Payload file, - for stdin")
	evaluateCmd.Flags().String("format", "json", "Payload format: json or xml")
	evaluateCmd.Flags().StringP("output", "O", "text", "Output format: text or json")
	evaluateCmd.Flags().Float64("altitude", defaults.CollectionAltitudeFtMSL, "Collection altitude in ft MSL")
	evaluateCmd.Flags().Float64("buffer", defaults.SafetyBufferFt, "Safety buffer in ft")
	evaluateCmd.Flags().Float64("radius", defaults.SearchRadiusNM, "Search radius in nm")
	evaluateCmd.Flags().Float64("lat", defaults.LaunchPoint.Latitude, "Launch point latitude")
	evaluateCmd.Flags().Float64("lon", defaults.LaunchPoint.Longitude, "Launch point longitude")
	evaluateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(runCmd, onceCmd, evaluateCmd)
}

// withAgent loads configuration and wires the agent, archive and scheduler
func withAgent(fn func(ctx context.Context, s *scheduler.Scheduler, agent *ceilingcheck.CeilingAgent) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	store, err := storage.NewVerdictStore(filepath.Join(cfg.Storage.DataDir, "verdicts.db"), log)
	if err != nil {
		return fmt.Errorf("failed to open verdict archive: %w", err)
	}
	defer store.Close()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := ceilingcheck.NewCeilingAgent(cfg, store, log)
	s := scheduler.New(cfg, agent, store, log)

	return fn(ctx, s, agent)
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		payload, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		return payload, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload %s: %w", path, err)
	}
	return payload, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errNoGo) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
