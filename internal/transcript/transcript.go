// Package transcript fetches caption text for the video being watched.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/pavelanni/conceptbridge/internal/quiz"
)

// maxBody caps the transcript response size.
const maxBody = 4 << 20

type segment struct {
	Text string `json:"text"`
}

type response struct {
	Transcript string    `json:"transcript"`
	Segments   []segment `json:"segments"`
}

// Client fetches transcripts from an HTTP transcript service.
//
// The service is queried as GET <base>?video_id=<id>[&lang=<lang>] and answers
// with {"transcript": "..."} or {"segments": [{"text": "..."}]}. A 404 means
// the video has no transcript.
type Client struct {
	baseURL string
	lang    string
	http    *http.Client
}

// New creates a transcript client. A nil httpClient uses http.DefaultClient.
func New(baseURL, lang string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, lang: lang, http: httpClient}
}

// Fetch returns the transcript for contentID. It fails with
// quiz.ErrTranscriptUnavailable or quiz.ErrTranscriptFetch.
func (c *Client) Fetch(ctx context.Context, contentID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse base url: %v", quiz.ErrTranscriptFetch, err)
	}
	q := u.Query()
	q.Set("video_id", contentID)
	if c.lang != "" {
		q.Set("lang", c.lang)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", quiz.ErrTranscriptFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", quiz.ErrTranscriptFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return "", fmt.Errorf("%w: %s", quiz.ErrTranscriptUnavailable, contentID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("%w: unexpected status %d", quiz.ErrTranscriptFetch, resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&r); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", quiz.ErrTranscriptFetch, err)
	}

	text := strings.TrimSpace(r.Transcript)
	if text == "" && len(r.Segments) > 0 {
		parts := make([]string, 0, len(r.Segments))
		for _, s := range r.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text = strings.Join(parts, " ")
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript for %s", quiz.ErrTranscriptUnavailable, contentID)
	}
	return text, nil
}

// None is a source for deployments without a transcript service.
type None struct{}

func (None) Fetch(context.Context, string) (string, error) {
	return "", quiz.ErrTranscriptUnavailable
}

var errNoContentID = errors.New("no content id in page address")

// ContentID derives the content identifier from a page address. YouTube watch,
// short-link, shorts and embed URLs yield the video id; other pages yield the
// last path segment.
func ContentID(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	p := strings.Trim(u.Path, "/")
	if host == "youtu.be" && p != "" {
		return strings.SplitN(p, "/", 2)[0], nil
	}
	for _, prefix := range []string{"shorts/", "embed/", "live/"} {
		if rest, ok := strings.CutPrefix(p, prefix); ok && rest != "" {
			return strings.SplitN(rest, "/", 2)[0], nil
		}
	}
	if p != "" {
		return path.Base(p), nil
	}
	return "", errNoContentID
}
