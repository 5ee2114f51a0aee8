package ai

import (
	"context"

	"github.com/spigell/jobmatch/internal/analysis"
)

// Coach suggests extra interview questions for a matched job.
type Coach interface {
	FollowUpQuestions(ctx context.Context, job *analysis.JobMatch, limit int) ([]string, error)
}
