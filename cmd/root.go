package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
)

type flagValues struct {
	configPath    string
	logLevel      string
	journalPath   string
	uri           string
	project       string
	token         string
	delete        bool
	batchSize     int
	fetchWorkers  int
	deleteWorkers int
	maxRPS        int
	reportDest    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &flagValues{}

	cmd := &cobra.Command{
		Use:   "tcclean",
		Short: "Find and delete test cases that have no steps",
		Long: `tcclean lists every Test Case of a TFS / Azure DevOps project whose steps
field was never populated. With --delete the matching test cases are removed.

Configuration is read from defaults, then --config, then TCCLEAN_* environment
variables, then flags; later sources take precedence.`,
		Example: `  tcclean -u https://dev.azure.com/fabrikam -p Fabrikam -t $PAT
  tcclean -u https://tfs.example.com/tfs/DefaultCollection -p Fabrikam -t $PAT --delete
  tcclean history --journal deleted.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return &usageError{fmt.Errorf("configuration validation error: %w", err)}
			}
			return runCleanup(cmd.Context(), cfg, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (.yaml, .yml, .toml or .json)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: silent, error, info, debug, verbose (env: TCCLEAN_LOG_LEVEL)")
	pf.StringVar(&flags.journalPath, "journal", "", "Path of the bbolt journal of deleted test cases (env: TCCLEAN_JOURNAL_PATH)")

	f := cmd.Flags()
	f.StringVarP(&flags.uri, "uri", "u", "", "Collection URI, e.g. https://dev.azure.com/fabrikam (env: TCCLEAN_URI)")
	f.StringVarP(&flags.project, "projectName", "p", "", "Team project name (env: TCCLEAN_PROJECT)")
	f.StringVarP(&flags.token, "token", "t", "", "Personal access token (env: TCCLEAN_TOKEN)")
	f.BoolVarP(&flags.delete, "delete", "d", false, "Delete matching test cases instead of only listing them (env: TCCLEAN_DELETE)")
	f.IntVar(&flags.batchSize, "batch-size", 0, "Ids per work item details request, 1-200 (env: TCCLEAN_BATCH_SIZE)")
	f.IntVar(&flags.fetchWorkers, "fetch-workers", 0, "Concurrent details requests, 0 = one per batch (env: TCCLEAN_FETCH_WORKERS)")
	f.IntVar(&flags.deleteWorkers, "delete-workers", 0, "Concurrent delete requests, 0 = one per test case (env: TCCLEAN_DELETE_WORKERS)")
	f.IntVar(&flags.maxRPS, "max-rps", 0, "Max requests per second to the server, 0 = no limit (env: TCCLEAN_MAX_RPS)")
	f.StringVar(&flags.reportDest, "report-dest", "", "Report destination: none, ftp, s3 (env: TCCLEAN_REPORT_TYPE)")

	cmd.AddCommand(newHistoryCmd(stdout, flags))

	return cmd
}

// buildConfig layers defaults, the config file, the environment and the flags that were set
func buildConfig(cmd *cobra.Command, flags *flagValues) (*config.AppConfig, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		fileCfg, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, &usageError{fmt.Errorf("loading config file: %w", err)}
		}
		cfg = fileCfg
	}

	cfg, err := config.ApplyEnv(cfg)
	if err != nil {
		return nil, &usageError{fmt.Errorf("loading config from environment: %w", err)}
	}

	if err := applyFlags(cmd, cfg, flags); err != nil {
		return nil, &usageError{err}
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.AppConfig, flags *flagValues) error {
	changed := cmd.Flags().Changed

	// Logger
	if changed("log-level") {
		level, err := config.ParseLogLevel(flags.logLevel)
		if err != nil {
			return err
		}
		cfg.Logger.Level = level
	}

	// Journal
	if changed("journal") {
		cfg.Journal.Path = flags.journalPath
	}

	// History has no server or cleanup flags
	if cmd.Flags().Lookup("uri") == nil {
		return nil
	}

	// Server
	if changed("uri") {
		cfg.Server.URI = flags.uri
	}
	if changed("projectName") {
		cfg.Server.ProjectName = flags.project
	}
	if changed("token") {
		cfg.Server.PersonalAccessToken = flags.token
	}
	if changed("max-rps") {
		// Allow 0 (no limit) to be explicitly set
		cfg.Server.MaxRPS = flags.maxRPS
	}

	// Cleanup
	if changed("delete") {
		cfg.Cleanup.Delete = flags.delete
	}
	if changed("batch-size") {
		cfg.Cleanup.BatchSize = flags.batchSize
	}
	if changed("fetch-workers") {
		cfg.Cleanup.FetchWorkers = flags.fetchWorkers
	}
	if changed("delete-workers") {
		cfg.Cleanup.DeleteWorkers = flags.deleteWorkers
	}

	// Report
	if changed("report-dest") {
		cfg.Report.DestinationType = config.DestinationType(flags.reportDest)
	}
	return nil
}
