// Package videotest provides in-memory Page and Video fakes.
package videotest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pavelanni/conceptbridge/internal/video"
)

// Video is a fake video element.
type Video struct {
	mu       sync.Mutex
	id       string
	playing  bool
	pauseErr error
	pauses   int
}

// NewVideo creates a fake video with the given identity.
func NewVideo(id string) *Video {
	return &Video{id: id}
}

func (v *Video) ID() string { return v.id }

func (v *Video) Playing(context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing, nil
}

// Pause records the request. With a configured failure it reports
// ErrPlaybackControl and leaves the video playing.
func (v *Video) Pause(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pauses++
	if v.pauseErr != nil {
		return fmt.Errorf("%w: %v", video.ErrPlaybackControl, v.pauseErr)
	}
	v.playing = false
	return nil
}

// SetPlaying sets the reported playback state.
func (v *Video) SetPlaying(p bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.playing = p
}

// FailPause makes subsequent Pause calls fail with err.
func (v *Video) FailPause(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pauseErr = err
}

// Pauses returns how many pause requests were made.
func (v *Video) Pauses() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pauses
}

// Page is a fake host page.
type Page struct {
	mu      sync.Mutex
	video   *Video
	ad      bool
	url     string
	lookups int
}

// NewPage creates a fake page at url with no video.
func NewPage(url string) *Page {
	return &Page{url: url}
}

func (p *Page) CurrentVideo(context.Context) (video.Video, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups++
	if p.video == nil {
		return nil, nil
	}
	return p.video, nil
}

func (p *Page) AdShowing(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ad, nil
}

func (p *Page) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// SetVideo replaces the page's video element; nil removes it.
func (p *Page) SetVideo(v *Video) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.video = v
}

// SetAd toggles the advertisement marker.
func (p *Page) SetAd(ad bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ad = ad
}

// Lookups returns the number of CurrentVideo calls.
func (p *Page) Lookups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookups
}
