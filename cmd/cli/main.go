package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gopayout-cli",
		Short: "GoPayout CLI tool",
		Long:  `A command line interface for interacting with the GoPayout API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoPayout API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(withdrawalCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(staleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <participant-id>",
		Short: "Show a participant's available credit balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/participants/"+args[0]+"/balance", nil)
		},
	}
}

func withdrawalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawal",
		Short: "Withdrawal operations",
	}

	var (
		participantID   string
		credits         string
		note            string
		requireApproval bool
	)

	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Request a withdrawal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/withdrawals", map[string]any{
				"participant_id":   participantID,
				"credits":          credits,
				"note":             note,
				"require_approval": requireApproval,
			})
		},
	}
	requestCmd.Flags().StringVar(&participantID, "participant", "", "Participant ID")
	requestCmd.Flags().StringVar(&credits, "credits", "", "Credits to withdraw")
	requestCmd.Flags().StringVar(&note, "note", "", "Optional note")
	requestCmd.Flags().BoolVar(&requireApproval, "require-approval", false, "Hold the withdrawal for admin approval")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/withdrawals/"+args[0], nil)
		},
	}

	var decisionNote string

	approveCmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/withdrawals/"+args[0]+"/approve",
				map[string]any{"note": decisionNote})
		},
	}
	approveCmd.Flags().StringVar(&decisionNote, "note", "", "Decision note")

	rejectCmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a pending or approved withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/withdrawals/"+args[0]+"/reject",
				map[string]any{"note": decisionNote})
		},
	}
	rejectCmd.Flags().StringVar(&decisionNote, "note", "", "Decision note")

	cmd.AddCommand(requestCmd, getCmd, approveCmd, rejectCmd)

	return cmd
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Batch sweep operations",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch sweep over all active participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/sweeps", map[string]any{})
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <report-id>",
		Short: "Show a sweep report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/sweeps/"+args[0], nil)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sweep reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/sweeps", nil)
		},
	}

	cmd.AddCommand(runCmd, getCmd, listCmd)

	return cmd
}

func staleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stale",
		Short: "List withdrawals stuck in processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/reconciliation/stale", nil)
		},
	}
}

func doRequest(method, path string, payload map[string]any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		fmt.Println(string(data))
	} else {
		printJSON(parsed)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
