package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/falcon-incidents/internal/config"
	"github.com/samvad-hq/falcon-incidents/internal/logger"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

// dispatcher is the part of *incidents.Client the commands drive.
type dispatcher interface {
	Dispatch(ctx context.Context, op incidents.Operation, in incidents.Input) incidents.Outcome
}

// clientFactory builds the client for one command invocation from the
// persistent flags of its root.
type clientFactory func(cmd *cobra.Command, flags *globalFlags) (dispatcher, error)

// globalFlags holds the persistent flags of one root command.
type globalFlags struct {
	baseURL  string
	insecure bool
	timeout  time.Duration
	verbose  bool
}

// statusError reports a non-2xx result after it has been printed.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request returned status %d", e.code)
}

func newRootCmd(factory clientFactory) *cobra.Command {
	if factory == nil {
		factory = clientFromConfig
	}

	root := &cobra.Command{
		Use:           "incidents",
		Short:         "Call the Falcon incidents API",
		Long:          "incidents issues a single request against the Falcon incidents API\nand prints the normalized result (status_code, headers, body) as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	flags := &globalFlags{}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (default from falcon_base_url)")
	pf.BoolVar(&flags.insecure, "insecure", false, "Skip TLS certificate verification")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Request timeout (default from http_timeout_seconds)")
	pf.BoolVar(&flags.verbose, "verbose", false, "Log request diagnostics to stderr")

	for _, op := range incidents.Operations() {
		root.AddCommand(newOperationCmd(op, factory, flags))
	}
	return root
}

// clientFromConfig builds a session from config, letting persistent flags override it.
func clientFromConfig(cmd *cobra.Command, gf *globalFlags) (dispatcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	baseURL := cfg.BaseURL
	if flags.Changed("base-url") {
		baseURL = gf.baseURL
	}
	insecure := cfg.InsecureSkipVerify
	if flags.Changed("insecure") {
		insecure = gf.insecure
	}
	timeout := cfg.HTTPTimeout
	if flags.Changed("timeout") {
		timeout = gf.timeout
	}

	var log incidents.Logger
	if gf.verbose {
		zl, err := logger.InitStderr("debug")
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		log = zl
	}

	return incidents.New(cfg.AccessToken,
		incidents.WithBaseURL(baseURL),
		incidents.WithInsecureSkipVerify(insecure),
		incidents.WithTimeout(timeout),
		incidents.WithLogger(log),
	), nil
}

func printResult(cmd *cobra.Command, outcome incidents.Outcome) error {
	res := outcome.Result()
	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))

	if failed, ok := outcome.(*incidents.Failed); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s failure: %v\n", failed.Kind, failed.Cause)
	}
	if !res.OK() {
		return &statusError{code: res.StatusCode}
	}
	return nil
}
