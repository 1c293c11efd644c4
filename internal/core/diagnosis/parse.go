package diagnosis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"diagnosis-service/internal/domain"
)

const invalidJSONExcerpt = 500

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\s*")
	closingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFence removes a markdown code fence wrapped around the model output.
func StripCodeFence(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	clean = openingFence.ReplaceAllString(clean, "")
	return closingFence.ReplaceAllString(clean, "")
}

// ParseDiagnosis decodes the model output. Missing sections are allowed;
// anything that is not a JSON object is ErrAIInvalidJSON.
func ParseDiagnosis(raw string) (*domain.Diagnosis, error) {
	clean := StripCodeFence(raw)
	if clean == "" {
		return nil, ErrAIEmptyResponse
	}
	if !strings.HasPrefix(clean, "{") {
		return nil, fmt.Errorf("%w: %s", ErrAIInvalidJSON, excerpt(clean, invalidJSONExcerpt))
	}

	var d domain.Diagnosis
	if err := json.Unmarshal([]byte(clean), &d); err != nil {
		return nil, fmt.Errorf("%w (%v): %s", ErrAIInvalidJSON, err, excerpt(clean, invalidJSONExcerpt))
	}
	return &d, nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
