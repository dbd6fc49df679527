package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
)

// commandNames maps operations to subcommand names.
var commandNames = map[string]string{
	incidents.OpCrowdScore.Name:            "crowdscore",
	incidents.OpGetBehaviors.Name:          "get-behaviors",
	incidents.OpPerformIncidentAction.Name: "incident-action",
	incidents.OpGetIncidents.Name:          "get-incidents",
	incidents.OpQueryBehaviors.Name:        "query-behaviors",
	incidents.OpQueryIncidents.Name:        "query-incidents",
}

type operationFlags struct {
	params   []string
	body     string
	bodyFile string
	ids      []string
	actions  []string
}

func newOperationCmd(op incidents.Operation, factory clientFactory, gf *globalFlags) *cobra.Command {
	var flags operationFlags

	name := commandNames[op.Name]
	if name == "" {
		name = strings.ToLower(op.Name)
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s %s", op.Method, op.Path),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := buildInput(op, flags, cmd.InOrStdin())
			if err != nil {
				return err
			}
			client, err := factory(cmd, gf)
			if err != nil {
				return err
			}
			return printResult(cmd, client.Dispatch(cmd.Context(), op, in))
		},
	}

	f := cmd.Flags()
	switch op.Mode {
	case incidents.QueryMode:
		f.StringArrayVar(&flags.params, "param", nil, "Query parameter as key=value (repeatable)")
	case incidents.BodyMode:
		f.StringVar(&flags.body, "body", "", "JSON request body")
		f.StringVar(&flags.bodyFile, "body-file", "", "Read the JSON request body from a file (- for stdin)")
		f.StringSliceVar(&flags.ids, "ids", nil, "Resource IDs; builds {\"ids\": [...]}")
		cmd.MarkFlagsMutuallyExclusive("body", "body-file", "ids")
		if op.Name == incidents.OpPerformIncidentAction.Name {
			f.StringArrayVar(&flags.actions, "action", nil, "Action parameter as name=value, used with --ids (repeatable)")
		}
	}
	return cmd
}

func buildInput(op incidents.Operation, flags operationFlags, stdin io.Reader) (incidents.Input, error) {
	if op.Mode == incidents.QueryMode {
		params, err := parseParams(flags.params)
		if err != nil {
			return incidents.Input{}, err
		}
		return incidents.QueryInput(params), nil
	}

	body, err := parseBody(flags, stdin)
	if err != nil {
		return incidents.Input{}, err
	}
	return incidents.BodyInput(body), nil
}

// parseParams turns key=value pairs into query values, keeping repeats.
func parseParams(pairs []string) (url.Values, error) {
	params := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", pair)
		}
		params.Add(key, value)
	}
	return params, nil
}

func parseBody(flags operationFlags, stdin io.Reader) (any, error) {
	if len(flags.actions) > 0 && len(flags.ids) == 0 {
		return nil, errors.New("--action requires --ids")
	}
	switch {
	case len(flags.ids) > 0:
		body := map[string]any{"ids": flags.ids}
		if len(flags.actions) > 0 {
			actions, err := parseActions(flags.actions)
			if err != nil {
				return nil, err
			}
			body["action_parameters"] = actions
		}
		return body, nil
	case flags.body != "":
		return decodeBody([]byte(flags.body))
	case flags.bodyFile != "":
		raw, err := readBodyFile(flags.bodyFile, stdin)
		if err != nil {
			return nil, err
		}
		return decodeBody(raw)
	default:
		return nil, nil
	}
}

func parseActions(pairs []string) ([]map[string]string, error) {
	out := make([]map[string]string, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --action %q (want name=value)", pair)
		}
		out = append(out, map[string]string{"name": name, "value": value})
	}
	return out, nil
}

func readBodyFile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read body file: %w", err)
	}
	return raw, nil
}

func decodeBody(raw []byte) (any, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse request body: %w", err)
	}
	return body, nil
}
