// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trendscope/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run one research workflow and print the report",
	Long: `Research runs the full workflow for a single query — collection,
clustering, topic naming, insight synthesis — and prints the resulting
report. Requires the tavily and openai API keys in .secrets/ or config.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("json", false, "output the full state as JSON")
	researchCmd.Flags().Bool("yaml", false, "output the full state as YAML")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	runner, st, err := buildRunner(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer st.Close()

	_, state, err := runner.Run(context.Background(), args[0])
	if err != nil {
		return err
	}
	if state.Status == types.StatusFailed {
		return fmt.Errorf("research failed: %s", state.Error)
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}
	if yamlOut, _ := cmd.Flags().GetBool("yaml"); yamlOut {
		out, err := yaml.Marshal(state)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	}

	printReport(os.Stdout, state)
	return nil
}

func printReport(w io.Writer, state *types.ResearchState) {
	fmt.Fprintf(w, "Query: %s\n", state.Query)
	fmt.Fprintf(w, "Documents: %d\n\n", len(state.RawResults))

	fmt.Fprintf(w, "Topics (%d):\n", len(state.Clusters))
	for _, c := range state.Clusters {
		fmt.Fprintf(w, "  - %s (%d documents)\n", c.Name, c.Size)
		if len(c.Keywords) > 0 {
			fmt.Fprintf(w, "    keywords: %s\n", strings.Join(c.Keywords, ", "))
		}
	}

	if state.Insights == nil {
		return
	}
	printSection(w, "핵심 인사이트", state.Insights.Insights, state.Insights.InsightsRefs)
	printSection(w, "성공 사례", state.Insights.SuccessCases, state.Insights.SuccessRefs)
	printSection(w, "실패 사례", state.Insights.FailureCases, state.Insights.FailureRefs)
	printSection(w, "향후 시장 전망", state.Insights.MarketOutlook, state.Insights.OutlookRefs)
}

func printSection(w io.Writer, title string, lines []string, refs []int) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, line := range lines {
		fmt.Fprintf(w, "  - %s\n", line)
	}
	if len(refs) > 0 {
		fmt.Fprintf(w, "  참고: %v\n", refs)
	}
}
