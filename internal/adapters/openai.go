package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

const defaultChatBaseURL = "https://api.openai.com/v1"

// ChatClient is a collab.TextGenerator backed by an OpenAI-compatible
// chat-completion endpoint.
type ChatClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

var _ collab.TextGenerator = (*ChatClient)(nil)

func (c *ChatClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *ChatClient) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return defaultChatBaseURL
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("%w: chat API key not configured", flow.ErrCollaboratorUnavailable)
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ChatClassifier is a collab.RelevanceClassifier that prompts a
// TextGenerator for a JSON verdict.
type ChatClassifier struct {
	Gen collab.TextGenerator
}

var _ collab.RelevanceClassifier = (*ChatClassifier)(nil)

type classifyVerdict struct {
	IsRelevant     bool     `json:"is_relevant"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	RelevanceScore float64  `json:"relevance_score"`
}

func (c *ChatClassifier) Classify(ctx context.Context, item collab.RawItem, interests []string) (collab.Classification, error) {
	prompt := fmt.Sprintf(
		"You are a content researcher. Decide whether the transcript below matches the "+
			"user's interests.\n\nUser interests: %s\n\nTitle: %s\nTranscript: %s\n\n"+
			"Return a JSON object with fields: is_relevant (boolean), summary (string), "+
			"key_points (list of 3-5 strings), relevance_score (number 1-10). "+
			"Return only the JSON.",
		strings.Join(interests, ", "),
		item.Title,
		item.Body,
	)

	raw, err := c.Gen.Generate(ctx, prompt)
	if err != nil {
		return collab.Classification{}, err
	}

	var verdict classifyVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &verdict); err != nil {
		return collab.Classification{}, fmt.Errorf("unparseable classification: %w", err)
	}

	return collab.Classification{
		IsRelevant: verdict.IsRelevant,
		Summary:    verdict.Summary,
		KeyPoints:  verdict.KeyPoints,
		Score:      verdict.RelevanceScore,
	}, nil
}

// stripCodeFence unwraps ```json ... ``` fencing that chat models like to
// add around JSON answers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
