package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/config"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

const maxExtractionInput = 20000

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract the fields a recruiter needs to publish it.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "title": "Job title (e.g., Senior Backend Engineer)",
    "location": "Job location or 'Remote'",
    "salary": "Yearly salary as a plain number if explicitly mentioned, otherwise null",
    "description": "A clean summary of the responsibilities. Remove HTML tags.",
    "qualifications": "Required skills and experience as plain text",
    "aboutCompany": "What the posting says about the company, otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// LLMService pre-fills job drafts from pasted postings.
type LLMService struct {
	// Client is nil when no API key is configured.
	Client  llms.Model
	Timeout time.Duration
	Logger  logger.Logger
}

// NewLLMService creates a Gemini-backed service. Without an API key the
// service is returned unconfigured and ExtractJobDetails reports that.
func NewLLMService(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*LLMService, error) {
	s := &LLMService{Timeout: config.GetDuration(cfg.Timeout), Logger: log}
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, job extraction disabled", nil)
		return s, nil
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.GeminiAPIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	s.Client = llm
	return s, nil
}

// ExtractJobDetails asks the model for a structured draft of rawHTML.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (*dtos.JobDraft, error) {
	if s == nil || s.Client == nil {
		return nil, apperrors.ServiceUnavailable("Job extraction is not configured.")
	}
	if strings.TrimSpace(rawHTML) == "" {
		return nil, apperrors.MissingParameter("Posting text is required.")
	}
	if len(rawHTML) > maxExtractionInput {
		rawHTML = rawHTML[:maxExtractionInput]
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(jobExtractionPrompt, rawHTML),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("job extraction: %w", err))
	}

	draft, err := parseJobDraft(resp)
	if err != nil {
		s.Logger.Warn("unparseable extraction output", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.Internal(err)
	}
	return draft, nil
}

// parseJobDraft tolerates markdown fences around the JSON and a salary sent
// as a string.
func parseJobDraft(raw string) (*dtos.JobDraft, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var out struct {
		dtos.JobDraft
		Salary json.RawMessage `json:"salary"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode extraction output: %w", err)
	}

	draft := out.JobDraft
	draft.Salary = parseSalary(out.Salary)
	return &draft, nil
}

func parseSalary(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return nil
	}
	return &n
}
