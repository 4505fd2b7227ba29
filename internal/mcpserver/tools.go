package mcpserver

import (
	"encoding/json"
	"fmt"
)

// builtinTools returns the calculator and weather tool set.
// The weather report is a canned simulation, not a live lookup.
func builtinTools() []toolDef {
	return []toolDef{
		{
			name:        "add",
			description: "Add two numbers",
			inputSchema: twoNumberSchema(),
			handler: func(args map[string]any) (string, error) {
				a, b, err := twoNumbers(args)
				if err != nil {
					return "", err
				}
				return formatNumber(a + b), nil
			},
		},
		{
			name:        "multiply",
			description: "Multiply two numbers",
			inputSchema: twoNumberSchema(),
			handler: func(args map[string]any) (string, error) {
				a, b, err := twoNumbers(args)
				if err != nil {
					return "", err
				}
				return formatNumber(a * b), nil
			},
		},
		{
			name:        "get_weather",
			description: "Get weather information for the given city (simulated)",
			inputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"city": map[string]any{
						"type":        "string",
						"description": "City name",
					},
				},
				"required": []string{"city"},
			},
			handler: getWeather,
		},
	}
}

func twoNumberSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func twoNumbers(args map[string]any) (float64, float64, error) {
	a, okA := toFloat(args["a"])
	b, okB := toFloat(args["b"])
	if !okA || !okB {
		return 0, 0, fmt.Errorf("arguments 'a' and 'b' must be numbers")
	}
	return a, b, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// formatNumber renders integral results without a decimal point, so the
// model sees "5" rather than "5.000000".
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func getWeather(args map[string]any) (string, error) {
	city, _ := args["city"].(string)
	if city == "" {
		return "", fmt.Errorf("argument 'city' is required")
	}
	report := map[string]any{
		"city":        city,
		"temperature": 22,
		"condition":   "Sunny",
		"humidity":    65,
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
