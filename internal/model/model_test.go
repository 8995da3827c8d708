package model

import (
	"encoding/json"
	"testing"
)

func TestCommandEncode(t *testing.T) {
	cmd := Command{
		Tool:   "user_manager",
		Action: "create",
		Params: map[string]any{"username": "alice"},
	}

	encoded, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["tool"] != "user_manager" {
		t.Errorf("tool: got %v, want %q", decoded["tool"], "user_manager")
	}
	if decoded["action"] != "create" {
		t.Errorf("action: got %v, want %q", decoded["action"], "create")
	}
}

func TestResponseText_Priority(t *testing.T) {
	cases := []struct {
		name string
		resp Response
		want string
	}{
		{"message wins", Response{Message: "m", Result: "r", Error: "e"}, "m"},
		{"result when no message", Response{Result: "r", Error: "e"}, "r"},
		{"error last", Response{Error: "e"}, "e"},
		{"empty message falls through", Response{Message: "", Result: "r"}, "r"},
		{"nothing set", Response{}, ""},
		{"structured result encoded as JSON", Response{Result: map[string]any{"rows": float64(3)}}, `{"rows":3}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.resp.Text(); got != tc.want {
				t.Errorf("Text: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBatchStatsAdd(t *testing.T) {
	var b BatchStats
	b.Add(FileStats{Total: 3, Success: 1, ValidationFailed: 1, DryRun: 1})
	b.Add(FileStats{Total: 2, Failed: 1, Skipped: 1})

	if b.Rows.Total != 5 {
		t.Errorf("Total: got %d, want 5", b.Rows.Total)
	}
	if b.Rows.Success != 1 || b.Rows.Failed != 1 || b.Rows.ValidationFailed != 1 ||
		b.Rows.DryRun != 1 || b.Rows.Skipped != 1 {
		t.Errorf("unexpected counters: %+v", b.Rows)
	}
	if b.Rows.Resolved() != 5 {
		t.Errorf("Resolved: got %d, want 5", b.Rows.Resolved())
	}
}

func TestDescribeExitCode(t *testing.T) {
	cases := map[int]string{
		ExitSuccess:          "Success",
		17:                   "Server error",
		ExitNoResponse:       "No response from server",
		ExitValidationFailed: "Validation failed (client-side)",
		ExitException:        "Exception occurred",
		ExitDryRun:           "Dry run (not executed)",
	}
	for code, want := range cases {
		if got := DescribeExitCode(code); got != want {
			t.Errorf("DescribeExitCode(%d): got %q, want %q", code, got, want)
		}
	}
}
