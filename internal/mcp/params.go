package mcp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MapParameters converts a raw JSON argument map to a typed argument vector
// per the tool's declared parameters. It never invokes a handler; it returns
// the first violation it finds.
func MapParameters(params []ParameterDescriptor, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}

	sentinelName, hasSentinel := SupportsSingleStringSentinel(params)

	// The derived schema declares additionalProperties:false; enforce the
	// same here so a tool with zero parameters rejects any non-empty
	// argument object.
	declared := make(map[string]bool, len(params)+1)
	for _, p := range params {
		declared[p.Name] = true
	}
	if hasSentinel {
		declared[SingleStringSentinelKey] = true
	}
	for key := range args {
		if !declared[key] {
			return nil, NewParameterError(key, "unknown parameter")
		}
	}

	out := make(map[string]any, len(params))
	for _, p := range params {
		raw, present := args[p.Name]
		if !present && hasSentinel && p.Name == sentinelName {
			raw, present = args[SingleStringSentinelKey]
		}

		if !present {
			if p.HasDefault {
				coerced, err := coerce(p, p.DefaultValue)
				if err != nil {
					return nil, NewParameterError(p.Name, err.Error())
				}
				out[p.Name] = coerced
				continue
			}
			if p.Required {
				return nil, NewParameterError(p.Name, "required parameter is missing")
			}
			out[p.Name] = zeroValue(p.Type)
			continue
		}

		coerced, err := coerce(p, raw)
		if err != nil {
			return nil, NewParameterError(p.Name, err.Error())
		}
		if err := validate(p, coerced); err != nil {
			return nil, NewParameterError(p.Name, err.Error())
		}
		out[p.Name] = coerced
	}
	return out, nil
}

func zeroValue(t ParamType) any {
	switch t {
	case ParamInteger, ParamLong:
		return int64(0)
	case ParamDouble:
		return float64(0)
	case ParamBoolean:
		return false
	case ParamObject:
		return nil
	default:
		return ""
	}
}

// coerce converts an arbitrary value (JSON-decoded any, or a default string)
// to the parameter's declared type.
func coerce(p ParameterDescriptor, raw any) (any, error) {
	switch p.Type {
	case ParamString:
		return toStringValue(raw), nil
	case ParamInteger, ParamLong:
		return toInt(raw)
	case ParamDouble:
		return toFloat(raw)
	case ParamBoolean:
		return toBool(raw)
	case ParamObject:
		return toObject(raw)
	default:
		return raw, nil
	}
}

func toStringValue(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not a valid integer: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to integer", raw)
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a valid number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to number", raw)
	}
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return false, fmt.Errorf("not a valid boolean: %q", v)
		}
	default:
		return false, fmt.Errorf("cannot coerce %T to boolean", raw)
	}
}

func toObject(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		var obj any
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, fmt.Errorf("not valid JSON: %v", err)
		}
		return obj, nil
	case map[string]any, []any, nil:
		return v, nil
	default:
		return v, nil
	}
}

func validate(p ParameterDescriptor, value any) error {
	switch p.Type {
	case ParamString:
		s := value.(string)
		if p.Pattern != "" {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern configured: %v", err)
			}
			if !re.MatchString(s) {
				return fmt.Errorf("value %q does not match pattern %q", s, p.Pattern)
			}
		}
		if len(p.EnumValues) > 0 && !contains(p.EnumValues, s) {
			return fmt.Errorf("value %q is not one of %v", s, p.EnumValues)
		}
	case ParamInteger, ParamLong:
		n := float64(value.(int64))
		return validateNumericBounds(p, n)
	case ParamDouble:
		return validateNumericBounds(p, value.(float64))
	}
	return nil
}

func validateNumericBounds(p ParameterDescriptor, n float64) error {
	if p.HasMin && n < p.Min {
		return fmt.Errorf("value %v is below minimum %v", n, p.Min)
	}
	if p.HasMax && n > p.Max {
		return fmt.Errorf("value %v is above maximum %v", n, p.Max)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
