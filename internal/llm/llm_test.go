package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "raw json object",
			input:    `{"tasks": []}`,
			expected: `{"tasks": []}`,
		},
		{
			name:     "json with leading text",
			input:    `Here is the response: {"tasks": [{"title": "test"}]}`,
			expected: `{"tasks": [{"title": "test"}]}`,
		},
		{
			name:     "json in code block",
			input:    "```json\n{\"tasks\": []}\n```",
			expected: `{"tasks": []}`,
		},
		{
			name:     "json in plain code block",
			input:    "```\n{\"tasks\": []}\n```",
			expected: `{"tasks": []}`,
		},
		{
			name:     "json array",
			input:    `[{"id": 1}, {"id": 2}]`,
			expected: `[{"id": 1}, {"id": 2}]`,
		},
		{
			name:     "nested json",
			input:    `{"outer": {"inner": {"deep": true}}}`,
			expected: `{"outer": {"inner": {"deep": true}}}`,
		},
		{
			name:     "no json at all",
			input:    "plain text answer",
			expected: "plain text answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.expected {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewClient_Ollama(t *testing.T) {
	client, err := NewClient("ollama", "llama3", "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ollamaClient, ok := client.(*OllamaClient)
	if !ok {
		t.Fatalf("expected OllamaClient, got %T", client)
	}
	if ollamaClient.baseURL != defaultOllamaBaseURL {
		t.Errorf("baseURL = %q, want %q", ollamaClient.baseURL, defaultOllamaBaseURL)
	}
}

func TestNewClient_Groq(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClient("groq", "llama-3.1-8b-instant", "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	openaiClient, ok := client.(*OpenAIClient)
	if !ok {
		t.Fatalf("expected OpenAIClient, got %T", client)
	}
	if openaiClient.baseURL != groqBaseURL {
		t.Errorf("baseURL = %q, want %q", openaiClient.baseURL, groqBaseURL)
	}
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient("unknown", "model", "")
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewOllamaClient_EmptyModel(t *testing.T) {
	_, err := NewOllamaClient("", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}
