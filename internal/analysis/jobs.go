package analysis

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// JobMatch is one ranked job returned by the service.
type JobMatch struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	MatchScore   float64  `json:"match_score"`
	CommonSkills []string `json:"common_skills"`
	AISalary     string   `json:"ai_salary"`
}

// MatchSet keeps the service's rank order.
type MatchSet []*JobMatch

type matchRequest struct {
	Skills []string `json:"skills"`
}

// MatchJobs asks the service for jobs sharing skills with the profile.
// An empty result is not an error.
func (c *Client) MatchJobs(ctx context.Context, skills []string) (MatchSet, error) {
	apiURLMatch := fmt.Sprintf("%s%s", c.APIURL, matchJobsPath)

	if skills == nil {
		skills = []string{}
	}

	var items []any
	if err := c.postJSON(ctx, apiURLMatch, matchRequest{Skills: skills}, &items); err != nil {
		return nil, fmt.Errorf("match jobs: %w", err)
	}

	var jobs MatchSet
	cfg := &mapstructure.DecoderConfig{
		Result:           &jobs,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("match jobs: decode items: %w", err)
	}

	return jobs, nil
}

func (m MatchSet) Len() int {
	return len(m)
}

// Index returns the position of job in the set by identity, or -1.
func (m MatchSet) Index(job *JobMatch) int {
	for idx, candidate := range m {
		if candidate == job {
			return idx
		}
	}
	return -1
}
