package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct{}

func (stubProvider) Complete(context.Context, string, []Message) (*Completion, error) {
	return &Completion{Content: "ok"}, nil
}
func (stubProvider) GetProviderName() string { return "stub" }

func TestRegistry(t *testing.T) {
	RegisterProvider("stub", func() (Provider, error) {
		return stubProvider{}, nil
	})

	p, err := NewProvider("stub")
	if err != nil {
		t.Fatalf("expected stub provider, got error: %v", err)
	}
	if p.GetProviderName() != "stub" {
		t.Errorf("unexpected provider name: %s", p.GetProviderName())
	}

	_, err = NewProvider("nope")
	if err == nil {
		t.Fatal("expected error for unregistered provider")
	}
	if !strings.Contains(err.Error(), `"nope"`) || !strings.Contains(err.Error(), "stub") {
		t.Errorf("error should name the unknown provider and the registered ones: %s", err)
	}
}

func TestProviderError(t *testing.T) {
	base := errors.New("boom")
	err := &ProviderError{Provider: "gemini", Code: ErrCodeServiceDown, Message: "down", Err: base}
	if !strings.Contains(err.Error(), "gemini") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	bare := &ProviderError{Provider: "gemini", Code: ErrCodeInvalidInput, Message: "empty"}
	if !strings.Contains(bare.Error(), "empty") {
		t.Errorf("unexpected error string: %s", bare.Error())
	}
}
