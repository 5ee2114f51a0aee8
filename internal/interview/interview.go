// Package interview derives interview-preparation questions from the skills a
// job shares with a resume.
package interview

import (
	"fmt"
	"strings"
)

// questions maps a lower-cased skill name to its prepared question.
var questions = map[string]string{
	"python":           "Explain the difference between a list and a tuple in Python, and when you would use a generator instead.",
	"java":             "How does garbage collection work in the JVM, and how would you diagnose a memory leak?",
	"c++":              "What is RAII in C++ and how do smart pointers help you apply it?",
	"sql":              "How would you find and fix a slow query, and when would you add an index?",
	"react":            "How does React decide when to re-render a component, and how do you avoid unnecessary renders?",
	"fastapi":          "How does FastAPI use type hints for request validation and dependency injection?",
	"javascript":       "Explain closures and the event loop in JavaScript with an example.",
	"html":             "What does semantic HTML mean and why does it matter for accessibility?",
	"css":              "How do Flexbox and Grid differ, and how do you choose between them for a layout?",
	"machine learning": "How do you detect and reduce overfitting in a machine learning model?",
	"data analysis":    "Walk through how you would clean and explore an unfamiliar dataset before drawing conclusions.",
	"communication":    "Tell me about a time you had to explain a technical topic to a non-technical audience.",
	"leadership":       "Describe a situation where you led a team through a difficult deadline or disagreement.",
	"git":              "How do you resolve a merge conflict, and when would you rebase instead of merge?",
	"go":               "How do goroutines and channels cooperate, and how do you avoid leaking goroutines?",
	"docker":           "What is the difference between an image and a container, and how do you keep images small?",
}

// Questions returns one question per skill, in input order. Skills are looked
// up case-insensitively; unknown skills get a generic question.
func Questions(skills []string) []string {
	result := make([]string, 0, len(skills))
	for _, skill := range skills {
		result = append(result, Question(skill))
	}
	return result
}

// Question returns the prepared question for skill or the generic fallback.
func Question(skill string) string {
	if q, ok := Lookup(skill); ok {
		return q
	}
	return Fallback(skill)
}

// Lookup reports the prepared question for skill, if any.
func Lookup(skill string) (string, bool) {
	q, ok := questions[normalize(skill)]
	return q, ok
}

// Fallback templates a generic question around skill, keeping its casing.
func Fallback(skill string) string {
	return fmt.Sprintf("Can you describe a project where you used %s and what you would do differently next time?", skill)
}

func normalize(skill string) string {
	return strings.ToLower(skill)
}
