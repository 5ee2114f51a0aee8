package present

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/jobmatch/internal/analysis"
	"github.com/spigell/jobmatch/internal/interview"
)

const (
	scoreMultiplier = 20
	maxPercentage   = 100

	// NotFound is shown in place of a missing email.
	NotFound = "Not found"
)

// Percentage maps a raw match score to a display percentage capped at 100.
// Scores are expected to be non-negative.
func Percentage(score float64) float64 {
	return min(score*scoreMultiplier, maxPercentage)
}

// MatchLabel renders the percentage badge, e.g. "60% Match".
func MatchLabel(score float64) string {
	return strconv.FormatFloat(Percentage(score), 'f', -1, 64) + "% Match"
}

// Initial returns the first character of the company name.
func Initial(company string) string {
	r, size := utf8.DecodeRuneInString(company)
	if size == 0 {
		return ""
	}
	return string(r)
}

// IsErrorMessage reports whether a status message should be shown as an error.
func IsErrorMessage(message string) bool {
	return strings.Contains(message, "Error")
}

// Card is the list entry for one job.
type Card struct {
	Initial  string
	Title    string
	Subtitle string
	Match    string
	Skills   []string
	Salary   string
}

func NewCard(job *analysis.JobMatch) Card {
	return Card{
		Initial:  Initial(job.Company),
		Title:    job.Title,
		Subtitle: job.Company + " • " + job.Location,
		Match:    MatchLabel(job.MatchScore),
		Skills:   job.CommonSkills,
		Salary:   job.AISalary,
	}
}

// Label is a single-line summary used in selection lists.
func (c Card) Label() string {
	return c.Title + " - " + c.Subtitle + " (" + c.Match + ")"
}

// Detail is the content of the job detail overlay.
type Detail struct {
	Card
	Questions []string
}

func NewDetail(job *analysis.JobMatch) Detail {
	return Detail{
		Card:      NewCard(job),
		Questions: interview.Questions(job.CommonSkills),
	}
}

// ReportByCompany groups matches by company, keeping rank order inside each group.
func ReportByCompany(jobs analysis.MatchSet) map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range jobs {
		report[job.Company] = append(report[job.Company], map[string]string{
			"title":         job.Title,
			"location":      job.Location,
			"match":         MatchLabel(job.MatchScore),
			"common_skills": strings.Join(job.CommonSkills, ", "),
			"ai_salary":     job.AISalary,
		})
	}
	return report
}
