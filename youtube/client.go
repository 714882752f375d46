package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytauto/internal/retry"
)

// pageSize is the largest page and id batch the API accepts.
const pageSize = 50

// Client is a YouTube Data API client for the authenticated channel.
type Client struct {
	service *youtube.Service
	// RetryConfig controls retries of individual API calls.
	RetryConfig retry.Config
	Logger      *slog.Logger
}

// NewClient creates a client that sends requests through httpClient, which
// is expected to carry OAuth credentials. Extra options are applied after it.
func NewClient(ctx context.Context, httpClient *http.Client, cfg retry.Config, opts ...option.ClientOption) (*Client, error) {
	if httpClient != nil {
		opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	}
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{
		service:     service,
		RetryConfig: cfg,
		Logger:      slog.Default().With("component", "youtube"),
	}, nil
}

func (c *Client) do(ctx context.Context, op, id string, fn func(context.Context) error) error {
	if err := retry.Do(ctx, c.RetryConfig, retry.IsGoogleRetryable, fn); err != nil {
		return &APIError{Op: op, ID: id, Err: err}
	}
	return nil
}

// Channel returns the authenticated user's channel.
func (c *Client) Channel(ctx context.Context) (Channel, error) {
	var ch Channel
	err := c.do(ctx, "channels.list", "", func(ctx context.Context) error {
		resp, err := c.service.Channels.List([]string{"snippet", "contentDetails"}).
			Mine(true).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return retry.Permanent(ErrNoChannel)
		}

		item := resp.Items[0]
		ch = Channel{ID: item.Id}
		if item.Snippet != nil {
			ch.Title = item.Snippet.Title
		}
		if item.ContentDetails != nil && item.ContentDetails.RelatedPlaylists != nil {
			ch.Uploads = item.ContentDetails.RelatedPlaylists.Uploads
		}
		return nil
	})
	return ch, err
}

// Videos returns every upload of the authenticated channel with its
// snippet, status and duration.
func (c *Client) Videos(ctx context.Context) ([]Video, error) {
	ch, err := c.Channel(ctx)
	if err != nil {
		return nil, err
	}
	if ch.Uploads == "" {
		return nil, nil
	}

	ids, err := c.PlaylistVideoIDs(ctx, ch.Uploads)
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(ids))
	for start := 0; start < len(ids); start += pageSize {
		end := min(start+pageSize, len(ids))
		batch, err := c.videos(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		videos = append(videos, batch...)
	}
	c.Logger.Debug("listed uploads", "channel", ch.ID, "videos", len(videos))
	return videos, nil
}

func (c *Client) videos(ctx context.Context, ids []string) ([]Video, error) {
	var out []Video
	err := c.do(ctx, "videos.list", "", func(ctx context.Context) error {
		resp, err := c.service.Videos.List([]string{"snippet", "status", "contentDetails"}).
			Id(ids...).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}

		out = out[:0]
		for _, item := range resp.Items {
			out = append(out, c.convert(item))
		}
		return nil
	})
	return out, err
}

func (c *Client) convert(item *youtube.Video) Video {
	v := Video{ID: item.Id}
	if s := item.Snippet; s != nil {
		v.Title = s.Title
		v.Description = s.Description
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			v.PublishedAt = t
		}
	}
	if s := item.Status; s != nil {
		v.Privacy = s.PrivacyStatus
		if s.PublishAt != "" {
			if t, err := time.Parse(time.RFC3339, s.PublishAt); err == nil {
				v.PublishAt = t
			}
		}
	}
	if cd := item.ContentDetails; cd != nil && cd.Duration != "" {
		d, err := ParseDuration(cd.Duration)
		if err != nil {
			c.Logger.Warn("ignoring video duration", "video", item.Id, "error", err)
		}
		v.Duration = d
	}
	return v
}

// Playlists returns the playlists owned by the authenticated channel.
func (c *Client) Playlists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	pageToken := ""
	for {
		err := c.do(ctx, "playlists.list", "", func(ctx context.Context) error {
			resp, err := c.service.Playlists.List([]string{"snippet"}).
				Mine(true).
				MaxResults(pageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}

			for _, item := range resp.Items {
				p := Playlist{ID: item.Id}
				if item.Snippet != nil {
					p.Title = item.Snippet.Title
				}
				playlists = append(playlists, p)
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			break
		}
	}
	return playlists, nil
}

// PlaylistVideoIDs returns the ids of the videos in a playlist, in
// playlist order.
func (c *Client) PlaylistVideoIDs(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		err := c.do(ctx, "playlistItems.list", playlistID, func(ctx context.Context) error {
			resp, err := c.service.PlaylistItems.List([]string{"contentDetails"}).
				PlaylistId(playlistID).
				MaxResults(pageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}

			for _, item := range resp.Items {
				if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
					ids = append(ids, item.ContentDetails.VideoId)
				}
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

// AddToPlaylist appends a video to a playlist.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}
	return c.do(ctx, "playlistItems.insert", playlistID, func(ctx context.Context) error {
		_, err := c.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do()
		return err
	})
}
