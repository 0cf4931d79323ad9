package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompts and model parameters for the extraction call
type PromptConfig struct {
	InvoiceExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"invoice_extraction"`

	Transcription struct {
		Prompt   string `yaml:"prompt"`
		Language string `yaml:"language"`
	} `yaml:"transcription"`
}

const defaultExtractionTemplate = `Act as an accountant. Extract UNIT PRICES from: "{{.JobDetails}}". ` +
	`Do NOT do math. Return ONLY JSON: ` +
	`{ "client_name": "Name", "items": [{"description": "Item", "quantity": 1, "price": 0}], "note": "Note" }`

// DefaultPrompts returns the built-in prompt set
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.InvoiceExtraction.Temperature = 0.1
	p.InvoiceExtraction.MaxTokens = 1024
	p.InvoiceExtraction.System = "You turn a contractor's job notes into invoice line items. Respond with a single JSON object."
	p.InvoiceExtraction.UserTemplate = defaultExtractionTemplate
	p.Transcription.Prompt = "Contractor job notes with quantities and prices."
	return &p
}

// LoadPrompts loads prompt configuration from a YAML file. Fields left
// empty in the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if _, err := template.New("check").Parse(prompts.InvoiceExtraction.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid invoice_extraction.user_template: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
