// internal/judge/parse.go
package judge

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/reticle/api/schemas"
)

// fencedObjectRe extracts a JSON object wrapped in a markdown code fence.
// \x60 stands in for the backtick, which Go raw strings cannot contain.
var fencedObjectRe = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// decodeEvaluation parses a judge reply into an ActionEvaluation. Models
// routinely wrap the object in code fences or conversational padding even
// when asked for plain JSON, so the object is located first and unmarshalled
// second.
func decodeEvaluation(response string) (*schemas.ActionEvaluation, error) {
	raw := extractJSONObject(strings.TrimSpace(response))

	if !strings.Contains(raw, "final_rating") {
		return nil, fmt.Errorf("response carries no final_rating field: %s", snippet(raw, 200))
	}

	var eval schemas.ActionEvaluation
	if err := jsonAPI.UnmarshalFromString(raw, &eval); err != nil {
		return nil, fmt.Errorf("failed to unmarshal evaluation response: %w (extracted: %s)", err, snippet(raw, 200))
	}

	return &eval, nil
}

// extractJSONObject returns the most plausible JSON object embedded in the
// response: the body of a markdown fence, the response itself when it is
// already bare JSON, or the outermost brace-delimited span.
func extractJSONObject(response string) string {
	if strings.HasPrefix(response, "```") {
		if m := fencedObjectRe.FindStringSubmatch(response); len(m) > 1 {
			return m[1]
		}
	}

	if strings.HasPrefix(response, "{") {
		return response
	}

	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first != -1 && last > first {
		return response[first : last+1]
	}

	return response
}

// snippet truncates s for inclusion in error messages.
func snippet(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
