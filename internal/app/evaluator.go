package app

import (
	"strings"
	"unicode/utf8"

	"pdfchat/internal/model"
)

var uncertaintyMarkers = []string{"error", "unknown", "i don't know"}

// Evaluate scores a finished answer with fixed heuristics. The query is
// currently unused.
func Evaluate(_ string, answer string) model.Evaluation {
	score := 5
	var notes []string

	if utf8.RuneCountInString(answer) > 100 {
		score += 3
	}
	lower := strings.ToLower(answer)
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			score -= 2
			notes = append(notes, "Contains uncertainty")
			break
		}
	}

	feedback := "OK"
	if len(notes) > 0 {
		feedback = strings.Join(notes, "; ")
	}
	return model.Evaluation{Score: score, Feedback: feedback}
}
