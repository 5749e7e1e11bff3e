package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var backendContract []byte

// ContractValidator checks successful JSON responses against the backend's
// OpenAPI description, rejecting malformed payloads at the client edge
// instead of letting them reach views.
type ContractValidator struct {
	doc       *openapi3.T
	templates []string
}

// NewContractValidator loads the embedded OpenAPI description
func NewContractValidator(ctx context.Context) (*ContractValidator, error) {
	return NewContractValidatorFromData(ctx, backendContract)
}

// NewContractValidatorFromData loads an OpenAPI description from raw YAML or JSON
func NewContractValidatorFromData(ctx context.Context, data []byte) (*ContractValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI contract: %w", err)
	}

	var templates []string
	if doc.Paths != nil {
		for path := range doc.Paths.Map() {
			templates = append(templates, path)
		}
	}
	// Literal segments first so /reservations/my wins over /reservations/{id}.
	sort.Slice(templates, func(i, j int) bool {
		pi, pj := strings.Count(templates[i], "{"), strings.Count(templates[j], "{")
		if pi != pj {
			return pi < pj
		}
		return templates[i] < templates[j]
	})

	return &ContractValidator{doc: doc, templates: templates}, nil
}

// ValidateResponse validates body for the given request. Endpoints,
// methods or statuses the contract does not describe are accepted.
func (v *ContractValidator) ValidateResponse(method, path string, status int, body []byte) error {
	op := v.operation(method, path)
	if op == nil || op.Responses == nil {
		return nil
	}

	ref := op.Responses.Status(status)
	if ref == nil {
		ref = op.Responses.Default()
	}
	if ref == nil || ref.Value == nil {
		return nil
	}

	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := media.Schema.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("%s %s: response does not match contract: %w", method, path, err)
	}
	return nil
}

// Endpoints lists "METHOD /template" pairs known to the contract
func (v *ContractValidator) Endpoints() []string {
	var out []string
	for _, tmpl := range v.templates {
		item := v.doc.Paths.Value(tmpl)
		for method := range item.Operations() {
			out = append(out, method+" "+tmpl)
		}
	}
	sort.Strings(out)
	return out
}

func (v *ContractValidator) operation(method, path string) *openapi3.Operation {
	for _, tmpl := range v.templates {
		if !matchTemplate(tmpl, path) {
			continue
		}
		item := v.doc.Paths.Value(tmpl)
		if item == nil {
			continue
		}
		if op := item.GetOperation(strings.ToUpper(method)); op != nil {
			return op
		}
	}
	return nil
}

// matchTemplate matches /events/{id} style templates segment by segment
func matchTemplate(tmpl, path string) bool {
	ts := strings.Split(strings.Trim(tmpl, "/"), "/")
	ps := strings.Split(strings.Trim(path, "/"), "/")
	if len(ts) != len(ps) {
		return false
	}
	for i := range ts {
		if strings.HasPrefix(ts[i], "{") && strings.HasSuffix(ts[i], "}") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if ts[i] != ps[i] {
			return false
		}
	}
	return true
}
