package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/openai/openai-go/v3"
)

func TestRetryableStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{408, true},
		{409, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, c := range cases {
		err := fmt.Errorf("chat completion: %w", &openai.Error{StatusCode: c.status})
		if got := Retryable(err); got != c.want {
			t.Fatalf("status %d: expected retryable=%v, got %v", c.status, c.want, got)
		}
	}
}

func TestRetryableTransportAndContext(t *testing.T) {
	if !Retryable(errors.New("connection reset by peer")) {
		t.Fatal("expected transport errors to be retryable")
	}
	if Retryable(context.Canceled) {
		t.Fatal("expected context.Canceled to be non-retryable")
	}
	if Retryable(fmt.Errorf("call: %w", context.DeadlineExceeded)) {
		t.Fatal("expected deadline errors to be non-retryable")
	}
	if Retryable(nil) {
		t.Fatal("expected nil to be non-retryable")
	}
}
