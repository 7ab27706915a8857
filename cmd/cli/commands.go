package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var (
	mainRole string
	subRole  string
	capacity int
)

func init() {
	joinCmd.Flags().StringVar(&mainRole, "main", "FILL", "Preferred role")
	joinCmd.Flags().StringVar(&subRole, "sub", "FILL", "Second choice role")
	queueCmd.Flags().IntVar(&capacity, "capacity", 0, "Players needed to form a match (0 uses the guild's team size)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(leaveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(settingsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue <guild> <channel>",
	Short: "Open the channel's queue, or show it if one is already open",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/queues", map[string]any{
			"guildId":   args[0],
			"channelId": args[1],
			"capacity":  capacity,
		})
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <queue> <player>",
	Short: "Join a queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("queues", args[0], "join"), map[string]string{
			"playerId": args[1],
			"mainRole": mainRole,
			"subRole":  subRole,
		})
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave <queue> <player>",
	Short: "Leave a queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("queues", args[0], "leave"), map[string]string{"playerId": args[1]})
	},
}

var startCmd = &cobra.Command{
	Use:   "start <queue>",
	Short: "Form a match from whoever is queued",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("queues", args[0], "start"), nil)
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <id>",
	Short: "Show a match, its tally and rating changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(path("matches", args[0]))
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <match> <player> <BLUE|RED|DRAW>",
	Short: "Cast or change a vote",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("matches", args[0], "votes"), map[string]string{
			"playerId": args[1],
			"choice":   args[2],
		})
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <match>",
	Short: "Confirm a match that has a majority and apply rating changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("matches", args[0], "confirm"), nil)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <match>",
	Short: "Cancel a match without rating it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest(path("matches", args[0], "cancel"), nil)
	},
}

var ratingCmd = &cobra.Command{
	Use:   "rating <guild> <player>",
	Short: "Show a player's rating",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(path("guilds", args[0], "players", args[1]))
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings <guild>",
	Short: "Show a guild's ladder settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest(path("guilds", args[0], "settings"))
	},
}

// path joins escaped segments into an endpoint.
func path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func performPostRequest(endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}
	resp, err := http.Post(url, "application/json", &body)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
