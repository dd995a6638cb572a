package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	infrahttp "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/http"
)

const checkTimeout = 30 * time.Second

// sampleComplaints cover each priority band.
var sampleComplaints = []string{
	"Server is down and not responding",
	"Could you add dark mode feature?",
	"Application is slow during peak hours",
	"Hello, how are you doing today?",
	"Critical security breach detected in admin panel",
}

func checkCommand() *cobra.Command {
	var (
		baseURL  string
		insecure bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Exercise a running API",
		Long: `Call /health, /stats and /predict on a running server, including the
empty and missing complaint_text error cases, and print every response.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := &checker{
				baseURL: strings.TrimRight(baseURL, "/"),
				client:  infrahttp.NewClient(infrahttp.ClientConfig{Timeout: checkTimeout, InsecureSkipVerify: insecure}),
				out:     cmd.OutOrStdout(),
			}
			return c.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:5000", "base URL of the API")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip TLS certificate verification")
	return cmd
}

type checker struct {
	baseURL string
	client  *http.Client
	out     io.Writer
}

type checkStep struct {
	name       string
	method     string
	path       string
	body       any
	wantStatus int
}

func (c *checker) steps() []checkStep {
	steps := []checkStep{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "stats", method: http.MethodGet, path: "/stats", wantStatus: http.StatusOK},
	}
	for _, text := range sampleComplaints {
		steps = append(steps, checkStep{
			name:       "predict: " + text,
			method:     http.MethodPost,
			path:       "/predict",
			body:       map[string]string{"complaint_text": text},
			wantStatus: http.StatusOK,
		})
	}
	return append(steps,
		checkStep{
			name: "empty complaint", method: http.MethodPost, path: "/predict",
			body: map[string]string{"complaint_text": ""}, wantStatus: http.StatusBadRequest,
		},
		checkStep{
			name: "missing field", method: http.MethodPost, path: "/predict",
			body: map[string]string{}, wantStatus: http.StatusBadRequest,
		},
	)
}

// Run executes every step and fails if any returned an unexpected status.
func (c *checker) Run(ctx context.Context) error {
	rule := strings.Repeat("-", 60)
	failed := 0
	for _, step := range c.steps() {
		status, body, err := c.do(ctx, step)
		if err != nil {
			return fmt.Errorf("cannot reach API at %s: %w", c.baseURL, err)
		}
		fmt.Fprintf(c.out, "%s\nStatus Code: %d\nResponse: %s\n%s\n", step.name, status, body, rule)
		if status != step.wantStatus {
			failed++
			fmt.Fprintf(c.out, "FAIL %s: got status %d, want %d\n", step.name, status, step.wantStatus)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	fmt.Fprintln(c.out, "All checks passed")
	return nil
}

func (c *checker) do(ctx context.Context, step checkStep) (int, string, error) {
	var reader io.Reader
	if step.body != nil {
		payload, err := json.Marshal(step.body)
		if err != nil {
			return 0, "", err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, step.method, c.baseURL+step.path, reader)
	if err != nil {
		return 0, "", err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, indentJSON(raw), nil
}

func indentJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
