// SPDX-License-Identifier: MIT

// Command arbiterctl is a CLI client for arbiterctld's admin HTTP API: it
// posts disable/enable overlay rules, queries per-zone state, tails the
// diagnostic event log, and probes liveness/readiness for use from a
// shell or an init system's healthcheck hook.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type clientOpts struct {
	addr    string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOpts{}

	root := &cobra.Command{
		Use:           "arbiterctl",
		Short:         "client for the arbiterctld admin API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", "http://127.0.0.1:8080", "arbiterctld admin API base address")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("ARBITERCTL_TOKEN"), "bearer token (default: ARBITERCTL_TOKEN env var)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")

	root.AddCommand(newDisableCmd(opts, true))
	root.AddCommand(newDisableCmd(opts, false))
	root.AddCommand(newZoneCmd(opts))
	root.AddCommand(newHealthcheckCmd(opts))
	return root
}

func (o *clientOpts) newClient() *http.Client {
	return &http.Client{Timeout: o.timeout}
}

// do sends method/path with an optional JSON body and decodes a JSON
// response into out (if non-nil), returning the problem detail text on
// any non-2xx status.
func (o *clientOpts) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.addr+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.newClient().Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, string(data))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// overlayRuleRequest mirrors internal/api's OverlayRuleRequest; kept as a
// local copy so this CLI has no compile-time dependency on the server's
// internal package, matching the loose client/server coupling an admin
// HTTP API is meant to have.
type overlayRuleRequest struct {
	Family string `json:"family"`
	Zone   string `json:"zone"`
	Type   string `json:"type"`
	Data   any    `json:"data"`
}

type overlayRuleResponse struct {
	Touched int `json:"touched"`
}

func newDisableCmd(opts *clientOpts, disable bool) *cobra.Command {
	var family, zone, ruleType, data string

	use, short := "enable", "re-enable a previously disabled resource rule"
	if disable {
		use, short = "disable", "disable resources matching a rule"
	}

	cmd := &cobra.Command{
		Use:   use + " --family <screen|audio> --zone <id|*> --type <requisite|appid|surfaceid> --data <value>",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := overlayRuleRequest{Family: family, Zone: zone, Type: ruleType, Data: parseRuleData(ruleType, data)}
			var resp overlayRuleResponse
			path := "/v1/enable"
			if disable {
				path = "/v1/disable"
			}
			if err := opts.do(cmd.Context(), http.MethodPost, path, req, &resp); err != nil {
				return err
			}
			fmt.Printf("touched %d resource(s)\n", resp.Touched)
			return nil
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "resource family: screen or audio")
	cmd.Flags().StringVar(&zone, "zone", "*", "zone id, or \"*\" for every zone")
	cmd.Flags().StringVar(&ruleType, "type", "", "rule type: requisite, appid or surfaceid")
	cmd.Flags().StringVar(&data, "data", "", "rule value (integer for requisite/surfaceid, string for appid)")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// parseRuleData mirrors parseOverlayRule's own type-switch: appid rules
// carry a string, the other two carry a number the server decodes via
// asNumber.
func parseRuleData(ruleType, data string) any {
	if ruleType == "appid" {
		return data
	}
	var n int64
	if _, err := fmt.Sscanf(data, "%d", &n); err != nil {
		return data
	}
	return n
}

func newZoneCmd(opts *clientOpts) *cobra.Command {
	zoneCmd := &cobra.Command{
		Use:   "zone",
		Short: "query per-zone state",
	}

	var limit int
	areasCmd := &cobra.Command{
		Use:   "areas <zone-id>",
		Short: "list the zone's screen resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(cmd.Context(), opts, "/v1/zones/"+args[0]+"/areas")
		},
	}
	audioCmd := &cobra.Command{
		Use:   "audio <zone-id>",
		Short: "list the zone's audio resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint(cmd.Context(), opts, "/v1/zones/"+args[0]+"/audio")
		},
	}
	eventsCmd := &cobra.Command{
		Use:   "events <zone-id>",
		Short: "tail the zone's diagnostic event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/v1/zones/%s/events?limit=%d", args[0], limit)
			return getAndPrint(cmd.Context(), opts, path)
		},
	}
	eventsCmd.Flags().IntVar(&limit, "limit", 100, "max number of events to return")

	zoneCmd.AddCommand(areasCmd, audioCmd, eventsCmd)
	return zoneCmd
}

// getAndPrint issues a GET and pretty-prints the raw JSON response,
// since each zone query has its own response shape and this client has
// no reason to duplicate those types beyond what disable/enable already
// needed.
func getAndPrint(ctx context.Context, opts *clientOpts, path string) error {
	var raw json.RawMessage
	if err := opts.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func newHealthcheckCmd(opts *clientOpts) *cobra.Command {
	var mode string
	var requireMetrics bool

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "probe arbiterctld's /healthz, /readyz and /metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/readyz"
			if mode == "live" {
				path = "/healthz"
			}
			client := opts.newClient()

			if err := probe(cmd.Context(), client, opts.addr+path); err != nil {
				return fmt.Errorf("%s probe failed: %w", mode, err)
			}
			if requireMetrics {
				if err := probe(cmd.Context(), client, opts.addr+"/metrics"); err != nil {
					return fmt.Errorf("metrics probe failed: %w", err)
				}
			}
			fmt.Printf("healthcheck successful (%s, metrics=%v)\n", mode, requireMetrics)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "ready", "healthcheck mode: ready (default) or live")
	cmd.Flags().BoolVar(&requireMetrics, "require-metrics", false, "also probe the /metrics endpoint")
	return cmd
}

func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
