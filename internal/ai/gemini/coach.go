package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Coach asks Gemini for follow-up interview questions.
type Coach struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Coach = (*Coach)(nil)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	defaultLimit        = 3
)

func NewCoach(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Coach {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coach{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (c *Coach) FollowUpQuestions(ctx context.Context, job *analysis.JobMatch, limit int) ([]string, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := buildPrompt(string(jobJSON), job.CommonSkills, limit)

	c.logger.Debug("gemini generate content request",
		zap.String("job_title", job.Title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.Preview(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini generate content response",
		zap.String("job_title", job.Title),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.Preview(raw, c.maxLogLen)),
	)

	questions, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	if len(questions) > limit {
		questions = questions[:limit]
	}

	return questions, nil
}

func buildPrompt(jobJSON string, skills []string, limit int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\nSkills: {{SKILLS}}\nQuestions (max {{LIMIT}}), JSON {\"questions\": []}:"
	}

	skillList := "none"
	if len(skills) > 0 {
		skillList = strings.Join(skills, ", ")
	}

	prompt := strings.ReplaceAll(template, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{SKILLS}}", skillList)
	prompt = strings.ReplaceAll(prompt, "{{LIMIT}}", strconv.Itoa(limit))
	return prompt
}

func parseResponse(raw string) ([]string, error) {
	var data struct {
		Questions []any `json:"questions"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	questions := make([]string, 0, len(data.Questions))
	for _, item := range data.Questions {
		text, ok := item.(string)
		if !ok {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			questions = append(questions, text)
		}
	}

	return questions, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
