package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tel_handoff_backend/platform/phone"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// result is one normalized candidate.
type result struct {
	Input  string `json:"input" yaml:"input"`
	Number string `json:"number,omitempty" yaml:"number,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func normalizeCmd() *cobra.Command {
	var (
		output string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [number...]",
		Short: "Normalize numbers to E.164 (reads stdin lines when no numbers are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args
			if len(inputs) == 0 {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				inputs = lines
			}

			results := make([]result, 0, len(inputs))
			failed := 0
			for _, raw := range inputs {
				r := normalizeOne(raw)
				if r.Reason != "" {
					failed++
				}
				results = append(results, r)
			}

			if err := writeResults(cmd.OutOrStdout(), output, results); err != nil {
				return err
			}
			if strict && failed > 0 {
				return fmt.Errorf("%d of %d numbers could not be normalized", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any number is unresolvable")
	return cmd
}

func normalizeOne(raw string) result {
	number, err := normalizer.Normalize(callingCode, raw)
	if err != nil {
		return result{Input: raw, Reason: string(phone.ReasonOf(err))}
	}
	return result{Input: raw, Number: number.String(), Region: number.Region()}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func writeResults(w io.Writer, format string, results []result) error {
	switch format {
	case outputText:
		for _, r := range results {
			if r.Reason != "" {
				if _, err := fmt.Fprintf(w, "%s\tunresolvable (%s)\n", r.Input, r.Reason); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", r.Input, r.Number); err != nil {
				return err
			}
		}
		return nil
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}
