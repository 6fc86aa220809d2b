package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openAIAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider implements Extractor using OpenAI's API.
type OpenAIProvider struct {
	apiKey string
	model  string
	apiURL string
	client *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		apiKey: apiKey,
		model:  model,
		apiURL: openAIAPIURL,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// ExtractPeople extracts {name, company, designation} from a headline.
func (p *OpenAIProvider) ExtractPeople(ctx context.Context, title string) (*PeopleFields, error) {
	system, user := PeoplePrompt(title)
	text, err := p.callAPI(ctx, system, user)
	if err != nil {
		return nil, err
	}
	return decodePeople(text)
}

// ExtractFunding extracts {company, amount, round, investors} from a
// headline plus optional summary.
func (p *OpenAIProvider) ExtractFunding(ctx context.Context, title, summary string) (*FundingFields, error) {
	system, user := FundingPrompt(title, summary)
	text, err := p.callAPI(ctx, system, user)
	if err != nil {
		return nil, err
	}
	return decodeFunding(text)
}

// callAPI makes a request to the OpenAI API and returns the response text.
func (p *OpenAIProvider) callAPI(ctx context.Context, system, userPrompt string) (string, error) {
	reqBody := openAIRequest{
		Model: p.model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: userPrompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return apiResp.Choices[0].Message.Content, nil
}
