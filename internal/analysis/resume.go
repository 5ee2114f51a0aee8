package analysis

import (
	"context"
	"errors"
	"fmt"
)

const fileField = "file"

// Profile is what the service extracted from a resume.
type Profile struct {
	Filename string   `json:"filename,omitempty"`
	Email    *string  `json:"extracted_email"`
	Skills   []string `json:"extracted_skills"`
}

// EmailOr returns the extracted email or fallback when none was found.
func (p *Profile) EmailOr(fallback string) string {
	if p == nil || p.Email == nil || *p.Email == "" {
		return fallback
	}
	return *p.Email
}

func (p *Profile) HasSkills() bool {
	return p != nil && len(p.Skills) > 0
}

// ParseResume uploads the document to the service and returns the extracted profile.
func (c *Client) ParseResume(ctx context.Context, doc *Document) (*Profile, error) {
	if doc == nil {
		return nil, errors.New("document is required")
	}

	apiURLParse := fmt.Sprintf("%s%s", c.APIURL, parseResumePath)

	var profile *Profile
	if err := c.postFile(ctx, apiURLParse, fileField, doc.Name, doc.Data, &profile); err != nil {
		return nil, fmt.Errorf("parse resume: %w", err)
	}

	if profile == nil {
		profile = &Profile{}
	}

	return profile, nil
}
