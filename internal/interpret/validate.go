package interpret

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"regard/internal/tracking"
)

const responseSchema = `
#Interpretation: {
	interpretation: string & =~"\\S"
	confidence:     number & >=0 & <=1
	...
}
`

// ParseResponse decodes a service response and validates it against the
// interpretation schema. Markdown code fences and text around the JSON
// object are tolerated.
func ParseResponse(raw []byte) (tracking.AnomalyInterpretation, error) {
	body := extractJSON(string(raw))
	if body == "" {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return validateFields(data)
}

// Validate checks an interpretation produced without going through
// ParseResponse.
func Validate(result tracking.AnomalyInterpretation) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	_, err := validateFields(map[string]any{
		"interpretation": result.Interpretation,
		"confidence":     result.Confidence,
	})
	return err
}

// schemaState holds the compiled schema. A cue.Context is not safe for
// concurrent use, so validation runs under mu.
var schemaState struct {
	once   sync.Once
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
	err    error
}

func compiledSchema() (*cue.Context, cue.Value, error) {
	schemaState.once.Do(func() {
		ctx := cuecontext.New()
		schema := ctx.CompileString(responseSchema).LookupPath(cue.ParsePath("#Interpretation"))
		if err := schema.Err(); err != nil {
			schemaState.err = fmt.Errorf("compile response schema: %w", err)
			return
		}
		schemaState.ctx, schemaState.schema = ctx, schema
	})
	return schemaState.ctx, schemaState.schema, schemaState.err
}

func validateFields(data map[string]any) (tracking.AnomalyInterpretation, error) {
	ctx, schema, err := compiledSchema()
	if err != nil {
		return tracking.AnomalyInterpretation{}, err
	}
	schemaState.mu.Lock()
	defer schemaState.mu.Unlock()
	val := schema.Unify(ctx.Encode(data))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	var out tracking.AnomalyInterpretation
	if err := val.Decode(&out); err != nil {
		return tracking.AnomalyInterpretation{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return out, nil
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}
