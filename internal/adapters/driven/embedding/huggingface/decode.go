package huggingface

import (
	"encoding/json"
	"fmt"
)

// The pipeline answers with a sentence vector for sentence-transformers
// models, but with per-token vectors for plain transformer models. Token
// matrices are mean-pooled into one vector.

// decodeSingle decodes the response to a single input.
func decodeSingle(raw []byte) ([]float32, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	switch depth(v) {
	case 1:
		return flat(v)
	case 2:
		return meanPool(v)
	case 3:
		outer := v.([]any)
		if len(outer) == 0 {
			return nil, fmt.Errorf("decode response: empty result")
		}
		return meanPool(outer[0])
	default:
		return nil, fmt.Errorf("decode response: unexpected shape")
	}
}

// decodeBatch decodes the response to a list of inputs.
func decodeBatch(raw []byte) ([][]float32, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("decode response: expected a list")
	}

	d := depth(v)
	out := make([][]float32, len(items))
	for i, item := range items {
		var err error
		switch d {
		case 2:
			out[i], err = flat(item)
		case 3:
			out[i], err = meanPool(item)
		default:
			err = fmt.Errorf("unexpected shape")
		}
		if err != nil {
			return nil, fmt.Errorf("decode response item %d: %w", i, err)
		}
	}
	return out, nil
}

// depth returns the list nesting of v by following first elements.
func depth(v any) int {
	d := 0
	for {
		list, ok := v.([]any)
		if !ok {
			if _, isNum := v.(float64); isNum {
				return d
			}
			return -1
		}
		if len(list) == 0 {
			return d + 1
		}
		d++
		v = list[0]
	}
}

func flat(v any) ([]float32, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a vector")
	}
	out := make([]float32, len(list))
	for i, x := range list {
		f, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("element %d is not a number", i)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func meanPool(v any) ([]float32, error) {
	rows, ok := v.([]any)
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("expected a token matrix")
	}

	var sum []float64
	for r, row := range rows {
		vec, err := flat(row)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", r, err)
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		if len(vec) != len(sum) {
			return nil, fmt.Errorf("token %d has %d values, want %d", r, len(vec), len(sum))
		}
		for i, x := range vec {
			sum[i] += float64(x)
		}
	}

	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / float64(len(rows)))
	}
	return out, nil
}
