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

const defaultUnsplashBaseURL = "https://api.unsplash.com"

// Unsplash is a collab.ImageSource backed by the Unsplash search API.
type Unsplash struct {
	AccessKey string
	BaseURL   string
	PerPage   int
	HTTP      *http.Client
}

var _ collab.ImageSource = (*Unsplash)(nil)

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

func (u *Unsplash) Search(ctx context.Context, query string) ([]flow.ImageCandidate, error) {
	if u.AccessKey == "" {
		return nil, fmt.Errorf("%w: unsplash access key not configured", flow.ErrCollaboratorUnavailable)
	}

	base := defaultUnsplashBaseURL
	if u.BaseURL != "" {
		base = strings.TrimRight(u.BaseURL, "/")
	}
	perPage := u.PerPage
	if perPage <= 0 {
		perPage = 4
	}

	params := url.Values{
		"query":       {query},
		"per_page":    {fmt.Sprintf("%d", perPage)},
		"orientation": {"landscape"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+u.AccessKey)

	httpClient := u.HTTP
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
		return nil, fmt.Errorf("unsplash returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	images := make([]flow.ImageCandidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		images = append(images, flow.ImageCandidate{
			ThumbURL: r.URLs.Thumb,
			FullURL:  r.URLs.Regular,
			Author:   r.User.Name,
		})
	}
	return images, nil
}
