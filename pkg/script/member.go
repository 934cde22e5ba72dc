package script

import "strconv"

// SplitWithEscape splits value at sep. A sep preceded by escape is kept
// literally, as is any other escaped character (including escape itself).
// A trailing empty segment is dropped.
func SplitWithEscape(value string, sep, escape rune) []string {
	var (
		results []string
		current []rune
		escaped bool
	)
	for _, r := range value {
		switch {
		case escaped:
			current = append(current, r)
			escaped = false
		case r == sep:
			results = append(results, string(current))
			current = current[:0]
		case r == escape:
			escaped = true
		default:
			current = append(current, r)
		}
	}
	if len(current) > 0 {
		results = append(results, string(current))
	}
	return results
}

// EvaluateStringMember walks the dotted path member through o (decoded JSON:
// maps and slices, with numeric segments indexing slices) and replaces the
// string at the end of the path with its evaluated value. A literal dot in a
// key is written as `\.`. Missing path segments and non-string targets are
// left alone.
func (e *Evaluator) EvaluateStringMember(o any, member string) error {
	parts := SplitWithEscape(member, '.', '\\')
	for i, part := range parts {
		v, ok := child(o, part)
		if !ok {
			return nil
		}
		if i < len(parts)-1 {
			o = v
			continue
		}
		code, ok := v.(string)
		if !ok {
			return nil
		}
		resolved, err := e.Eval(code)
		if err != nil {
			return err
		}
		setChild(o, part, resolved)
	}
	return nil
}

func child(o any, key string) (any, bool) {
	switch c := o.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case []any:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

func setChild(o any, key string, v any) {
	switch c := o.(type) {
	case map[string]any:
		c[key] = v
	case []any:
		if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(c) {
			c[i] = v
		}
	}
}
