// Package browser drives a Chromium tab over the DevTools protocol and exposes
// it as a video.Page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"github.com/pavelanni/conceptbridge/internal/video"
)

// idAttr tags the video element so it can be found again across polls.
const idAttr = "data-cb-id"

// DefaultAdSelector matches the player container while an advert plays.
const DefaultAdSelector = ".ad-showing"

var errVideoGone = errors.New("video element detached")

// Options configure the browser session.
type Options struct {
	// ControlURL connects to a running browser. Empty launches a new one.
	ControlURL string
	Headless   bool
	// URL is opened in a new tab.
	URL        string
	AdSelector string
}

// Session is one tab of a controlled browser.
type Session struct {
	browser    *rod.Browser
	page       *rod.Page
	launcher   *launcher.Launcher
	adSelector string
}

// Open connects to or launches a browser and opens opts.URL.
func Open(ctx context.Context, opts Options) (*Session, error) {
	s := &Session{adSelector: opts.AdSelector}
	if s.adSelector == "" {
		s.adSelector = DefaultAdSelector
	}

	controlURL := opts.ControlURL
	if controlURL == "" {
		s.launcher = launcher.New().Headless(opts.Headless)
		u, err := s.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	s.browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: opts.URL})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open %s: %w", opts.URL, err)
	}
	if err := page.WaitLoad(); err != nil {
		slog.Warn("page load incomplete", "url", opts.URL, "error", err)
	}
	s.page = page
	slog.Info("browser tab opened", "url", opts.URL, "control_url", controlURL)
	return s, nil
}

// Close closes the tab's browser connection and any launched process.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Debug("browser close", "error", err)
		}
	}
	s.kill()
}

func (s *Session) kill() {
	if s.launcher != nil {
		s.launcher.Kill()
	}
}

func (s *Session) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	return s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:      js,
		JSArgs:  args,
		ByValue: true,
	})
}

// CurrentVideo returns the page's first video element, tagging it with a
// stable identity on first sight. It returns nil when there is none.
func (s *Session) CurrentVideo(ctx context.Context) (video.Video, error) {
	res, err := s.eval(ctx, `(attr, fresh) => {
		const v = document.querySelector('video');
		if (!v) return '';
		if (!v.hasAttribute(attr)) v.setAttribute(attr, fresh);
		return v.getAttribute(attr);
	}`, idAttr, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	id := res.Value.Str()
	if id == "" {
		return nil, nil
	}
	return &Video{session: s, id: id}, nil
}

// AdShowing reports whether the ad selector matches anything on the page.
func (s *Session) AdShowing(ctx context.Context) (bool, error) {
	res, err := s.eval(ctx, `(sel) => document.querySelector(sel) !== null`, s.adSelector)
	if err != nil {
		return false, fmt.Errorf("check ad: %w", err)
	}
	return res.Value.Bool(), nil
}

// URL returns the tab's current address.
func (s *Session) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

// Video is a tagged video element in a Session's tab.
type Video struct {
	session *Session
	id      string
}

func (v *Video) ID() string { return v.id }

// Playing reports whether the element is playing. A detached element is an error.
func (v *Video) Playing(ctx context.Context) (bool, error) {
	res, err := v.session.eval(ctx, `(attr, id) => {
		const v = document.querySelector('video[' + attr + '="' + id + '"]');
		if (!v) return null;
		return !v.paused && !v.ended;
	}`, idAttr, v.id)
	if err != nil {
		return false, fmt.Errorf("read playback state: %w", err)
	}
	if res.Value.Nil() {
		return false, errVideoGone
	}
	return res.Value.Bool(), nil
}

// Pause pauses the element.
func (v *Video) Pause(ctx context.Context) error {
	res, err := v.session.eval(ctx, `(attr, id) => {
		const v = document.querySelector('video[' + attr + '="' + id + '"]');
		if (!v) return false;
		v.pause();
		return true;
	}`, idAttr, v.id)
	if err != nil {
		return fmt.Errorf("%w: %v", video.ErrPlaybackControl, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: %v", video.ErrPlaybackControl, errVideoGone)
	}
	return nil
}
