package model

import "encoding/json"

// Command is the payload submitted to the remote executor. Params is opaque
// to the engine; each spec definition decides its shape.
type Command struct {
	Tool   string         `json:"tool"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Encode renders the command as the JSON string the executor accepts.
func (c Command) Encode() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Response is the executor's reply to a submitted command. An absent
// exit_code means success (0). Exactly one of Message/Result/Error usually
// carries the payload; Text picks in that priority order.
type Response struct {
	ExitCode int `json:"exit_code"`
	Message  any `json:"message"`
	Result   any `json:"result"`
	Error    any `json:"error"`
}

// Text returns the human-readable message for the response: message, then
// result, then error, first non-empty wins.
func (r *Response) Text() string {
	for _, v := range []any{r.Message, r.Result, r.Error} {
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
