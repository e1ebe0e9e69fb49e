// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gemini implements the llmres.Resource interface against Google's
// Gemini models via the official google.golang.org/genai SDK. Unlike the
// teacher's streaming, tool-call-aware model.LLM implementation, Dana's
// runtime only ever needs one round trip per reason(...) call, so this
// adaptation keeps just the client construction and a single
// GenerateContent call.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Config configures the Gemini-backed resource.
type Config struct {
	APIKey string
	Model  string
}

// Resource is an llmres.Resource backed by Gemini.
type Resource struct {
	client *genai.Client
	model  string
	name   string
}

// New constructs a Gemini resource. Requires cfg.APIKey; defaults
// cfg.Model to "gemini-2.0-flash" when unset.
func New(name string, cfg Config) (*Resource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	if name == "" {
		name = "gemini"
	}
	return &Resource{client: client, model: cfg.Model, name: name}, nil
}

func (r *Resource) Kind() string  { return "llm" }
func (r *Resource) Name() string  { return r.name }
func (r *Resource) Model() string { return r.model }

// ChatCompletion sends prompt as the sole user turn, with systemPrompt as
// the system instruction, and returns Gemini's aggregated text reply.
func (r *Resource) ChatCompletion(prompt, systemPrompt string) (string, error) {
	ctx := context.Background()
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini: generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text += part.Text
		}
	}
	return text, nil
}
