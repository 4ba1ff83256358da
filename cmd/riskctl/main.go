// Command riskctl is an offline companion to the risk engine service. It
// validates and prints workforce policy files and evaluates recorded weather
// conditions without contacting any weather provider.
//
// Usage:
//
//	go run ./cmd/riskctl policy validate configs/policy.yaml
//	go run ./cmd/riskctl policy show --file configs/policy.yaml --output json
//	go run ./cmd/riskctl evaluate --conditions cmd/riskctl/testdata/heatwave.json --crew emp-1,emp-2
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/pipeline"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/couchcryptid/weather-risk-engine/internal/risk"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "riskctl",
		Short:        "Weather risk policy and evaluation tool",
		SilenceUsage: true,
	}
	root.AddCommand(newPolicyCmd(), newEvaluateCmd())
	return root
}

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect workforce policy files",
	}

	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a policy file for threshold and table errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := policy.Load(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}

	var (
		file   string
		output string
	)
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy (defaults when no file is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadPolicy(file)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), output, p)
		},
	}
	showCmd.Flags().StringVarP(&file, "file", "f", "", "Policy file layered over the defaults")
	showCmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml, json")

	cmd.AddCommand(validateCmd, showCmd)
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var (
		conditionsFile string
		policyFile     string
		assessor       string
		crew           []string
		output         string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate recorded conditions against a policy",
		Long: `Evaluate reads a JSON conditions document (location, current, forecast)
and prints the full evaluation: risk levels, schedule adjustments, equipment,
training, alerts, and the risk assessment. Use "-" to read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := readConditions(cmd.InOrStdin(), conditionsFile)
			if err != nil {
				return err
			}
			p, err := loadPolicy(policyFile)
			if err != nil {
				return err
			}
			ev := pipeline.Assemble(c, p, risk.NewFreshness(nil, risk.DefaultFreshnessWindow), assessor, crew)
			return write(cmd.OutOrStdout(), output, ev)
		},
	}
	cmd.Flags().StringVarP(&conditionsFile, "conditions", "c", "", "JSON conditions file, or - for stdin")
	cmd.Flags().StringVarP(&policyFile, "policy", "p", "", "Policy file layered over the defaults")
	cmd.Flags().StringVar(&assessor, "assessor", domain.SystemAssessor, "Assessor recorded on the assessment")
	cmd.Flags().StringSliceVar(&crew, "crew", nil, "Employee IDs affected by schedule changes")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: yaml, json")
	_ = cmd.MarkFlagRequired("conditions")
	return cmd
}

func loadPolicy(path string) (*policy.Policy, error) {
	if path == "" {
		return policy.Default(), nil
	}
	return policy.Load(path)
}

func readConditions(stdin io.Reader, path string) (domain.Conditions, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.Conditions{}, fmt.Errorf("read conditions: %w", err)
	}

	var c domain.Conditions
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Conditions{}, fmt.Errorf("decode conditions: %w", err)
	}
	if c.Location == "" {
		return domain.Conditions{}, errors.New("decode conditions: location is required")
	}
	if c.Source == "" {
		c.Source = domain.SourceManual
	}
	return c, nil
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
