package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
	"github.com/storieswithjai/ghostflow/pkg/flow"
)

const defaultSerpBaseURL = "https://serpapi.com"

// SerpImages is a collab.ImageSource backed by SerpApi's Google Images
// engine.
type SerpImages struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

var _ collab.ImageSource = (*SerpImages)(nil)

type serpResponse struct {
	ImagesResults []struct {
		Thumbnail string `json:"thumbnail"`
		Original  string `json:"original"`
		Source    string `json:"source"`
	} `json:"images_results"`
}

func (s *SerpImages) Search(ctx context.Context, query string) ([]flow.ImageCandidate, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: serpapi key not configured", flow.ErrCollaboratorUnavailable)
	}

	base := defaultSerpBaseURL
	if s.BaseURL != "" {
		base = strings.TrimRight(s.BaseURL, "/")
	}

	params := url.Values{
		"q":       {query},
		"engine":  {"google_images"},
		"ijn":     {"0"},
		"api_key": {s.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("serpapi returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	images := make([]flow.ImageCandidate, 0, len(parsed.ImagesResults))
	for _, r := range parsed.ImagesResults {
		images = append(images, flow.ImageCandidate{
			ThumbURL: r.Thumbnail,
			FullURL:  r.Original,
			Author:   r.Source,
		})
	}
	return images, nil
}
