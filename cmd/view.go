package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/present"
	"github.com/spigell/jobmatch/internal/workflow"
)

const noJobsYet = "No jobs found yet."

// view renders controller state as plain text.
type view struct {
	out           io.Writer
	logger        *zap.Logger
	coach         ai.Coach
	questionLimit int
}

func newView(out io.Writer, logger *zap.Logger, coach ai.Coach, questionLimit int) *view {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &view{out: out, logger: logger, coach: coach, questionLimit: questionLimit}
}

// onState prints the status line of every transition.
func (v *view) onState(state workflow.State) {
	if state.Message == "" {
		return
	}

	severity := "info"
	if present.IsErrorMessage(state.Message) {
		severity = "error"
	}
	fmt.Fprintf(v.out, "[%s] %s\n", severity, state.Message)
}

func (v *view) selection(doc *analysis.Document) {
	pages := "unknown pages"
	if doc.Pages > 0 {
		pages = fmt.Sprintf("%d pages", doc.Pages)
	}
	fmt.Fprintf(v.out, "Selected %s (%s, %s; PDF max. %d MB)\n", doc.Name, sizeLabel(doc.Size()), pages, analysis.SizeHint>>20)
}

// results renders the profile panel and the match list.
func (v *view) results(state workflow.State) {
	if !state.HasResults() {
		return
	}

	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, "Your Profile")
	fmt.Fprintf(v.out, "  Email: %s\n", state.Profile.EmailOr(present.NotFound))
	fmt.Fprintf(v.out, "  Skills Detected: %s\n", strings.Join(state.Profile.Skills, ", "))

	fmt.Fprintln(v.out)
	fmt.Fprintf(v.out, "Recommended Jobs (%d Matches)\n", state.Matches.Len())

	if state.Matches.Len() == 0 {
		fmt.Fprintf(v.out, "  %s\n", noJobsYet)
		return
	}

	for idx, job := range state.Matches {
		card := present.NewCard(job)
		fmt.Fprintf(v.out, "  %d. [%s] %s\n", idx+1, card.Initial, card.Title)
		fmt.Fprintf(v.out, "     %s\n", card.Subtitle)
		fmt.Fprintf(v.out, "     %s | AI salary: %s\n", card.Match, card.Salary)
		fmt.Fprintf(v.out, "     Matched Skills: %s\n", strings.Join(card.Skills, ", "))
	}
}

// detail renders the overlay for one job. Coach failures are logged and skipped.
func (v *view) detail(ctx context.Context, job *analysis.JobMatch) {
	detail := present.NewDetail(job)

	fmt.Fprintln(v.out)
	fmt.Fprintf(v.out, "[%s] %s\n", detail.Initial, detail.Title)
	fmt.Fprintf(v.out, "%s\n", detail.Subtitle)
	fmt.Fprintf(v.out, "%s\n", detail.Match)
	fmt.Fprintf(v.out, "AI Salary Estimate: %s\n", detail.Salary)
	fmt.Fprintf(v.out, "Matched Skills: %s\n", strings.Join(detail.Skills, ", "))

	fmt.Fprintln(v.out, "Interview Preparation:")
	for idx, question := range detail.Questions {
		fmt.Fprintf(v.out, "  %d. %s\n", idx+1, question)
	}

	if v.coach == nil {
		return
	}

	extra, err := v.coach.FollowUpQuestions(ctx, job, v.questionLimit)
	if err != nil {
		v.logger.Warn("skipping ai follow-up questions", zap.String("job_title", job.Title), zap.Error(err))
		return
	}

	if len(extra) == 0 {
		return
	}

	fmt.Fprintln(v.out, "AI Follow-up Questions:")
	for idx, question := range extra {
		fmt.Fprintf(v.out, "  %d. %s\n", idx+1, question)
	}
}

func sizeLabel(size int) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/float64(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
