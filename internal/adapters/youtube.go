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

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeSource is a collab.TopicSource that lists a channel's recent
// uploads via the YouTube Data API and fetches transcripts from a separate
// transcript endpoint (the Data API does not serve them).
type YouTubeSource struct {
	APIKey string

	// TranscriptURL is a GET endpoint that returns plain-text transcripts;
	// the video ID is appended as the "video_id" query parameter.
	TranscriptURL string

	BaseURL    string
	MaxResults int
	HTTP       *http.Client
}

var _ collab.TopicSource = (*YouTubeSource)(nil)

func (y *YouTubeSource) httpClient() *http.Client {
	if y.HTTP != nil {
		return y.HTTP
	}
	return http.DefaultClient
}

func (y *YouTubeSource) baseURL() string {
	if y.BaseURL != "" {
		return strings.TrimRight(y.BaseURL, "/")
	}
	return defaultYouTubeBaseURL
}

func (y *YouTubeSource) maxResults() int {
	if y.MaxResults > 0 {
		return y.MaxResults
	}
	return 5
}

func (y *YouTubeSource) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", y.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL()+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := y.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("youtube api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type channelsResponse struct {
	Items []struct {
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// ListRecentItems resolves the channel's uploads playlist and returns its
// most recent videos. The Body field carries the video description; the
// transcript comes separately from FetchBody.
func (y *YouTubeSource) ListRecentItems(ctx context.Context, channelID string) ([]collab.RawItem, error) {
	if y.APIKey == "" {
		return nil, fmt.Errorf("%w: youtube API key not configured", flow.ErrCollaboratorUnavailable)
	}

	var channels channelsResponse
	if err := y.getJSON(ctx, "/channels", url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}, &channels); err != nil {
		return nil, err
	}
	if len(channels.Items) == 0 {
		return nil, fmt.Errorf("channel not found: %s", channelID)
	}

	uploads := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var playlist playlistItemsResponse
	if err := y.getJSON(ctx, "/playlistItems", url.Values{
		"part":       {"snippet"},
		"playlistId": {uploads},
		"maxResults": {fmt.Sprintf("%d", y.maxResults())},
	}, &playlist); err != nil {
		return nil, err
	}

	items := make([]collab.RawItem, 0, len(playlist.Items))
	for _, it := range playlist.Items {
		items = append(items, collab.RawItem{
			ID:    it.Snippet.ResourceID.VideoID,
			Title: it.Snippet.Title,
			Body:  it.Snippet.Description,
		})
	}
	return items, nil
}

// FetchBody retrieves the plain-text transcript for a video. Errors here are
// per-item: the research step skips the video and moves on.
func (y *YouTubeSource) FetchBody(ctx context.Context, videoID string) (string, error) {
	if y.TranscriptURL == "" {
		return "", fmt.Errorf("%w: transcript endpoint not configured", flow.ErrCollaboratorUnavailable)
	}

	u, err := url.Parse(y.TranscriptURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("video_id", videoID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := y.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript endpoint returned %d for %s", resp.StatusCode, videoID)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
