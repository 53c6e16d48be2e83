package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// 后端有时直接返回数组，有时包一层 {"tasks": [...]} 或 {"data": ...}
var wrapperKeys = []string{"data", "items", "results"}

func decodeList(body []byte, key string, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	switch body[0] {
	case '[':
		return json.Unmarshal(body, out)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err != nil {
			return err
		}
		for _, k := range append([]string{key}, wrapperKeys...) {
			if inner, ok := obj[k]; ok {
				return decodeList(inner, key, out)
			}
		}
		return nil
	}
	return fmt.Errorf("unexpected %s payload: %.40q", key, body)
}

// decodeOne accepts the bare object or the object under key / data.
func decodeOne(body []byte, key string, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return err
	}
	for _, k := range []string{key, "data"} {
		if inner, ok := obj[k]; ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '{' {
			return json.Unmarshal(inner, out)
		}
	}
	return json.Unmarshal(body, out)
}
