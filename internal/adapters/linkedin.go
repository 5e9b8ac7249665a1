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

const defaultLinkedInBaseURL = "https://api.linkedin.com/v2"

// LinkedIn is a collab.Publisher that creates UGC posts on behalf of the
// configured author.
type LinkedIn struct {
	AccessToken string
	AuthorURN   string
	BaseURL     string
	HTTP        *http.Client
}

var _ collab.Publisher = (*LinkedIn)(nil)

func (l *LinkedIn) PublishNow(ctx context.Context, text, imageURL string) (collab.PostResult, error) {
	if l.AccessToken == "" || l.AuthorURN == "" {
		return collab.PostResult{}, fmt.Errorf("%w: linkedin credentials not configured", flow.ErrCollaboratorUnavailable)
	}

	base := defaultLinkedInBaseURL
	if l.BaseURL != "" {
		base = strings.TrimRight(l.BaseURL, "/")
	}

	payload := map[string]any{
		"author":         l.AuthorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent(text, imageURL),
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return collab.PostResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return collab.PostResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+l.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	httpClient := l.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return collab.PostResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return collab.PostResult{}, fmt.Errorf("linkedin returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return collab.PostResult{}, err
	}
	return collab.PostResult{ID: parsed.ID}, nil
}

func shareContent(text, imageURL string) map[string]any {
	content := map[string]any{
		"shareCommentary": map[string]any{
			"text": text,
		},
		"shareMediaCategory": "NONE",
	}
	if imageURL != "" {
		content["shareMediaCategory"] = "ARTICLE"
		content["media"] = []map[string]any{
			{
				"status":      "READY",
				"originalUrl": imageURL,
			},
		}
	}
	return content
}
