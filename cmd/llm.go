package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelcheck/internal/llm"
	"github.com/abhisek/levelcheck/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded scoring requests",
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(st *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		sessionID, _ := cmd.Flags().GetString("session")

		return withStore(cmd, func(st *store.Store) error {
			events, err := st.LLMEvents().ListLLMEvents(cmd.Context(), store.LLMEventFilter{
				Limit:     limit,
				Purpose:   purpose,
				SessionID: sessionID,
			})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM events found.")
				return nil
			}

			fmt.Fprintf(out, "%-5s  %-19s  %-18s  %-28s  %-6s  %-6s  %-7s  %s\n",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
			fmt.Fprintln(out, strings.Repeat("─", 104))

			for _, e := range events {
				ok := "✓"
				if !e.Success {
					ok = "✗ " + e.ErrorKind
				}
				fmt.Fprintf(out, "%-5d  %-19s  %-18s  %-28s  %-6d  %-6d  %-7d  %s\n",
					e.ID,
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					truncate(e.Purpose, 18),
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withStore(cmd, func(st *store.Store) error {
			e, err := st.LLMEvents().GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			out := cmd.OutOrStdout()
			sep := strings.Repeat("─", 60)

			fmt.Fprintf(out, "ID:        %d\n", e.ID)
			fmt.Fprintf(out, "Time:      %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			if e.SessionID != "" {
				fmt.Fprintf(out, "Session:   %s\n", e.SessionID)
			}
			fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
			fmt.Fprintf(out, "Model:     %s\n", e.Model)
			fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
			fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Fprintf(out, "Cost:      %s\n", formatCost(e.CostUSD))
			fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
			fmt.Fprintf(out, "Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     [%s] %s\n", e.ErrorKind, e.ErrorMessage)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, "REQUEST")
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, orNotCaptured(e.RequestBody))

			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, "RESPONSE")
			fmt.Fprintln(out, sep)
			fmt.Fprintln(out, orNotCaptured(e.ResponseBody))
			return nil
		})
	},
}

// usage aggregates events sharing a purpose or model.
type usage struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
}

func aggregate(events []store.LLMEvent, key func(store.LLMEvent) string) []usage {
	byKey := make(map[string]*usage)
	for _, e := range events {
		k := key(e)
		u, ok := byKey[k]
		if !ok {
			u = &usage{Key: k}
			byKey[k] = u
		}
		u.Calls++
		if !e.Success {
			u.Failures++
		}
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		u.LatencyMs += e.LatencyMs
	}

	out := make([]usage, 0, len(byKey))
	for _, u := range byKey {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			events, err := st.LLMEvents().ListLLMEvents(cmd.Context(), store.LLMEventFilter{})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM usage recorded yet.")
				return nil
			}

			// Usage by purpose.
			fmt.Fprintln(out, "Usage by Purpose")
			fmt.Fprintln(out, strings.Repeat("─", 80))
			fmt.Fprintf(out, "%-18s  %6s  %6s  %10s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
			fmt.Fprintln(out, strings.Repeat("─", 80))

			var totalCalls, totalIn, totalOut int
			for _, u := range aggregate(events, func(e store.LLMEvent) string { return e.Purpose }) {
				fmt.Fprintf(out, "%-18s  %6d  %6d  %10d  %10d  %10d  %8d\n",
					truncate(u.Key, 18), u.Calls, u.Failures, u.InputTokens, u.OutputTokens,
					u.InputTokens+u.OutputTokens, u.LatencyMs/int64(u.Calls))
				totalCalls += u.Calls
				totalIn += u.InputTokens
				totalOut += u.OutputTokens
			}

			fmt.Fprintln(out, strings.Repeat("─", 80))
			fmt.Fprintf(out, "%-18s  %6d  %6s  %10d  %10d  %10d\n",
				"TOTAL", totalCalls, "", totalIn, totalOut, totalIn+totalOut)

			// Cost by model.
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Estimated Cost (USD)")
			fmt.Fprintln(out, strings.Repeat("─", 80))
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n",
				"Model", "Calls", "Input", "Output", "Cost")
			fmt.Fprintln(out, strings.Repeat("─", 80))

			var totalCost float64
			var unknownModels []string
			for _, u := range aggregate(events, func(e store.LLMEvent) string { return e.Model }) {
				cost := llm.LookupCost(u.Key)
				if cost == nil {
					unknownModels = append(unknownModels, u.Key)
					fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
						truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, "?")
					continue
				}
				c := cost.Cost(u.InputTokens, u.OutputTokens)
				totalCost += c
				fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
					truncate(u.Key, 32), u.Calls, u.InputTokens, u.OutputTokens, formatCost(c))
			}

			fmt.Fprintln(out, strings.Repeat("─", 80))
			label := "TOTAL"
			if len(unknownModels) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))

			if len(unknownModels) > 0 {
				fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
			}
			return nil
		})
	},
}

func orNotCaptured(s string) string {
	if s == "" {
		return "(not captured)"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. evaluate_response)")
	llmListCmd.Flags().StringP("session", "s", "", "Filter by assessment session ID")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
