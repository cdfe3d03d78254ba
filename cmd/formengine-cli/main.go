package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/options"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func main() {
	definition := flag.String("form", "", "form definition file (JSON or YAML)")
	renderer := flag.String("renderer", "tui", "renderer to use (tui or html)")
	output := flag.String("output", "", "output file (stdout if empty)")
	format := flag.String("format", string(tui.OutputFormatJSON), "terminal output format: json, form or pretty")
	optionsURL := flag.String("options-url", os.Getenv("FORMENGINE_OPTIONS_URL"), "base URL for remote option lists")
	submitURL := flag.String("submit-url", os.Getenv("FORMENGINE_SUBMIT_URL"), "URL the submission record is POSTed to")
	showInternal := flag.Bool("internal", false, "prompt for internal fields too")
	verbose := flag.Bool("v", false, "log diagnostics to stderr")
	flag.Parse()

	if *definition == "" && flag.NArg() > 0 {
		*definition = flag.Arg(0)
	}
	if *definition == "" {
		log.Fatalf("a form definition is required (-form path)")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	structure, result, err := formengine.Load(*definition)
	if err != nil {
		log.Fatalf("Failed to load form: %v", err)
	}
	for _, issue := range result.Warnings() {
		logger.Warn("definition issue", "issue", issue.String())
	}

	opts := []formengine.Option{
		formengine.WithLogger(logger),
		formengine.WithOutputFormat(tui.OutputFormat(*format)),
	}
	if *optionsURL != "" {
		source, err := options.NewHTTPSource(*optionsURL, options.WithHTTPLogger(logger))
		if err != nil {
			log.Fatalf("Invalid options URL: %v", err)
		}
		opts = append(opts, formengine.WithOptionsSource(source))
	}
	if *submitURL != "" {
		opts = append(opts, formengine.WithSubmit(postRecord(*submitURL, logger)))
	}

	registry, err := formengine.NewRegistry(opts...)
	if err != nil {
		log.Fatalf("Failed to build renderers: %v", err)
	}

	out, err := registry.Render(ctx, *renderer, structure, render.RenderOptions{ShowInternal: *showInternal})
	if err != nil {
		log.Fatalf("Failed to render form: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Output written to %s\n", *output)
	} else {
		fmt.Println(string(out))
	}
}

// postRecord submits records as JSON. Validation failures reported by the
// server as a JSON body come back as a PayloadError so they map onto fields.
func postRecord(url string, logger *slog.Logger) form.SubmitFunc {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = logger

	return func(ctx context.Context, record model.Record) error {
		body, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("submit: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		var payload map[string]any
		if strings.Contains(resp.Header.Get("Content-Type"), "json") &&
			json.NewDecoder(resp.Body).Decode(&payload) == nil {
			return &form.PayloadError{Status: resp.StatusCode, Payload: messages(payload)}
		}
		return fmt.Errorf("submit: unexpected status %s", resp.Status)
	}
}

func messages(payload map[string]any) map[string][]string {
	out := make(map[string][]string, len(payload))
	for key, raw := range payload {
		switch v := raw.(type) {
		case string:
			out[key] = []string{v}
		case []any:
			for _, item := range v {
				out[key] = append(out[key], fmt.Sprint(item))
			}
		default:
			out[key] = []string{fmt.Sprint(v)}
		}
	}
	return out
}
