package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/quickquote/internal/application/port"
	"github.com/garyjia/quickquote/internal/application/service"
	"github.com/garyjia/quickquote/internal/infrastructure/external/openai"
	"github.com/garyjia/quickquote/internal/invoice"
)

func main() {
	apiKey := flag.String("key", "", "API key (or set LLM_API_KEY env var)")
	baseURL := flag.String("base-url", "https://api.groq.com/openai/v1", "OpenAI-compatible base URL")
	model := flag.String("model", "llama-3.3-70b-versatile", "Chat model")
	promptsFile := flag.String("prompts", "", "Optional prompts YAML override")
	job := flag.String("job", service.ExampleJobDetails, "Job description to extract")
	company := flag.String("company", "My Company Inc.", "Company name printed on the invoice")
	out := flag.String("out", "", "Write the rendered invoice PDF to this path")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *apiKey == "" {
		*apiKey = os.Getenv("LLM_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: LLM_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-llm-connection --key gsk_... [--job \"...\"] [--out invoice.pdf]\n")
		os.Exit(1)
	}

	fmt.Println("=== LLM Extraction Test ===")
	fmt.Printf("  Endpoint: %s\n", *baseURL)
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	fmt.Printf("  Timeout: %v\n\n", *timeout)

	prompts := openai.DefaultPrompts()
	if *promptsFile != "" {
		prompts, err = openai.LoadPrompts(*promptsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Prompts loaded from %s\n", *promptsFile)
	}

	client := openai.NewClient(openai.ClientConfig{APIKey: *apiKey, BaseURL: *baseURL, Timeout: *timeout})
	var extractor port.InvoiceExtractor = openai.NewExtractor(client, *model, prompts, logger)

	fmt.Printf("Job: %s\n\n", *job)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	data, err := extractor.Extract(ctx, *job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: extraction failed\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Invalid or expired LLM_API_KEY\n")
		fmt.Fprintf(os.Stderr, "  2. Network connectivity issue\n")
		fmt.Fprintf(os.Stderr, "  3. Model name not served by this endpoint\n")
		os.Exit(1)
	}
	fmt.Printf("✓ Response received in %v\n\n", time.Since(start))

	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println("=== Extracted Data ===")
	fmt.Println(string(jsonBytes))

	doc, err := invoice.NewRenderer().Render(*company, *data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: render failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Invoice Table ===")
	for _, row := range doc.Table.Rows {
		fmt.Printf("  %-40s %6s %12s %12s\n", row.Description, row.DisplayQuantity(),
			invoice.FormatCurrency(row.UnitPrice), invoice.FormatCurrency(row.LineTotal))
	}
	fmt.Printf("  TOTAL: %s (skipped %d)\n", invoice.FormatCurrency(doc.Table.GrandTotal), doc.Table.Skipped)

	if *out != "" {
		if err := os.WriteFile(*out, doc.PDF, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "❌ ERROR: write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("\n✓ Invoice #%d written to %s\n", doc.Number, *out)
	}

	fmt.Println("\n✅ LLM Extraction Test PASSED!")
}
