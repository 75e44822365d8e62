package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrNotObject is returned when the document is valid JSON but not an object.
	ErrNotObject = errors.New("policy document is not a JSON object")
	// ErrUnrecognizedShape is returned when an object is neither a flat policy
	// nor a security.safety_net wrapper.
	ErrUnrecognizedShape = errors.New("policy document has an unrecognized shape")
)

const rulePrefix = "block_"

// Parse decodes a policy document. Both the flat form
// {"action": ..., "block_*": ...} and the wrapped form
// {"security": {"safety_net": {...}}} are accepted.
//
// A missing or non-string action becomes block. block_* entries whose value is
// not a boolean are ignored, which leaves that rule enabled.
func Parse(data []byte) (Policy, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Policy{}, ErrNotObject
	}

	inner, err := extractSafetyNet(obj)
	if err != nil {
		return Policy{}, err
	}
	return fromObject(inner), nil
}

func extractSafetyNet(obj map[string]any) (map[string]any, error) {
	if security, ok := obj["security"].(map[string]any); ok {
		if raw, present := security["safety_net"]; present {
			inner, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("security.safety_net: %w", ErrUnrecognizedShape)
			}
			return inner, nil
		}
	}

	if looksLikePolicy(obj) {
		return obj, nil
	}
	return nil, ErrUnrecognizedShape
}

func looksLikePolicy(obj map[string]any) bool {
	if _, ok := obj["action"]; ok {
		return true
	}
	for key := range obj {
		if strings.HasPrefix(key, rulePrefix) {
			return true
		}
	}
	return false
}

func fromObject(obj map[string]any) Policy {
	p := Policy{Action: ActionBlock, Rules: make(map[string]bool)}
	if action, ok := obj["action"].(string); ok {
		p.Action = Action(action)
	}
	for key, raw := range obj {
		if !strings.HasPrefix(key, rulePrefix) {
			continue
		}
		if enabled, ok := raw.(bool); ok {
			p.Rules[key] = enabled
		}
	}
	return p
}
