package llm_test

import (
	"testing"

	"github.com/easyops/dashchat-go/pkg/core/config"
	"github.com/easyops/dashchat-go/pkg/core/errors"
	"github.com/easyops/dashchat-go/pkg/core/llm"
)

func TestNewOpenAI_ValidAPIKey(t *testing.T) {
	client, err := llm.NewOpenAI(llm.WithAPIKey("test-api-key"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client == nil {
		t.Fatal("expected client to be non-nil")
	}
}

func TestNewOpenAI_EmptyAPIKey(t *testing.T) {
	_, err := llm.NewOpenAI()
	if err != errors.ErrInvalidAPIKey {
		t.Fatalf("expected ErrInvalidAPIKey, got %v", err)
	}
}

func TestNewOpenAI_DefaultModel(t *testing.T) {
	client, err := llm.NewOpenAI(llm.WithAPIKey("test-api-key"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.Model() != "gpt-4o-mini" {
		t.Fatalf("expected default model 'gpt-4o-mini', got %s", client.Model())
	}
}

func TestNewOpenAI_CustomModel(t *testing.T) {
	client, err := llm.NewOpenAI(
		llm.WithAPIKey("test-api-key"),
		llm.WithModel("gpt-4o"),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.Model() != "gpt-4o" {
		t.Fatalf("expected model 'gpt-4o', got %s", client.Model())
	}
}

func TestOpenAIClient_Name(t *testing.T) {
	client, _ := llm.NewOpenAI(llm.WithAPIKey("test-api-key"))
	if client.Name() != "openai" {
		t.Fatalf("expected name 'openai', got %s", client.Name())
	}
}

func TestOpenAIClient_Close(t *testing.T) {
	client, _ := llm.NewOpenAI(llm.WithAPIKey("test-api-key"))
	if err := client.Close(); err != nil {
		t.Fatalf("expected no error on close, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	provider, err := llm.FromConfig(config.ChatConfig{
		Model:  "gpt-4o-mini",
		APIKey: "test-api-key",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Model() != "gpt-4o-mini" {
		t.Fatalf("expected configured model, got %s", provider.Model())
	}
}

func TestFromConfig_Invalid(t *testing.T) {
	_, err := llm.FromConfig(config.ChatConfig{})
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}
