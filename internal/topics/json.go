package topics

import (
	"encoding/json"
	"strings"

	"github.com/indianpineappl/upto-date/internal/apperr"
)

// stripCodeFences removes a surrounding markdown code block, which some
// models emit despite being told not to.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// parseSnapshot parses a model response into a Snapshot. Responses that
// cannot be parsed as the expected structure are schema errors.
func parseSnapshot(text string) (*Snapshot, error) {
	text = stripCodeFences(text)
	if text == "" {
		return nil, &apperr.SchemaError{Reason: "empty response"}
	}

	var s Snapshot
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, &apperr.SchemaError{Reason: "response is not valid JSON: " + err.Error()}
	}
	if s.Topics == nil {
		return nil, &apperr.SchemaError{Reason: "response has no topics array"}
	}
	return &s, nil
}
