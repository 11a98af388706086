package dispatch

import "appmcp/pkg/errs"

func argString(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func requireString(args map[string]interface{}, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok {
		return "", errs.New(errs.InvalidParams, "missing required parameter: "+key)
	}
	return s, nil
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func requireInt(args map[string]interface{}, key string) (int, error) {
	n, ok := argInt(args, key)
	if !ok {
		return 0, errs.New(errs.InvalidParams, "missing required parameter: "+key)
	}
	return n, nil
}

func argFloat(args map[string]interface{}, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func argBool(args map[string]interface{}, key string, def bool) bool {
	v, ok := args[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func argObject(args map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := args[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}
