package main

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/pagex"
	"github.com/letmevibethatforyou/pagex/corpus"
	"github.com/letmevibethatforyou/pagex/finder"
	"github.com/letmevibethatforyou/pagex/pages"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	idx, err := corpus.NewIndex([]corpus.Entry{
		{ID: "p1", Text: "bcde"},
		{ID: "p2", Text: "abxx"},
		{ID: "p3", Text: "the quick brown fox"},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := pages.StoreFunc(func(ctx context.Context, id string) ([]byte, error) {
		if id == "p2" {
			return nil, errors.Wrap(pagex.ErrPageNotFound, id)
		}
		return []byte("image of " + id), nil
	})
	return NewHandler(finder.New(idx), store)
}

func TestHandleQuery(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	t.Run("confident", func(t *testing.T) {
		resp, err := h.HandleRequest(ctx, Request{Query: "the quick brown fox", IncludeImage: true})
		if err != nil {
			t.Fatalf("HandleRequest failed: %v", err)
		}
		if !resp.Found || !resp.Confident || len(resp.Matches) != 1 {
			t.Fatalf("unexpected response %+v", resp)
		}
		m := resp.Matches[0]
		if m.ID != "p3" || m.Next != "next|p3" || m.Previous != "prev|p3" {
			t.Errorf("unexpected match %+v", m)
		}
		img, _ := base64.StdEncoding.DecodeString(m.Image)
		if string(img) != "image of p3" {
			t.Errorf("unexpected image %q", img)
		}
	})

	t.Run("low confidence from text", func(t *testing.T) {
		resp, err := h.HandleRequest(ctx, Request{Text: "abcd", IncludeImage: true})
		if err != nil {
			t.Fatalf("HandleRequest failed: %v", err)
		}
		if resp.Confident || len(resp.Matches) != 2 {
			t.Fatalf("unexpected response %+v", resp)
		}
		if resp.Matches[0].Image == "" {
			t.Error("best match should carry its image")
		}
		if resp.Matches[1].Image != "" {
			t.Error("only the best match should carry an image")
		}
	})

	t.Run("no match", func(t *testing.T) {
		resp, err := h.HandleRequest(ctx, Request{Query: "zzzzzzzz"})
		if err != nil {
			t.Fatalf("HandleRequest failed: %v", err)
		}
		if resp.Found || resp.Message == "" {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestHandleNavigation(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	tests := map[string]struct {
		req       Request
		wantPage  string
		wantFound bool
		wantErr   error
	}{
		"next callback":       {req: Request{Callback: "next|p1"}, wantPage: "p2", wantFound: true},
		"prev callback":       {req: Request{Callback: "prev|p3"}, wantPage: "p2", wantFound: true},
		"open callback":       {req: Request{Callback: "page|p3"}, wantPage: "p3", wantFound: true},
		"id and direction":    {req: Request{ID: "p2", Direction: "previous"}, wantPage: "p1", wantFound: true},
		"id only":             {req: Request{ID: "p1"}, wantPage: "p1", wantFound: true},
		"past the end":        {req: Request{Callback: "next|p3"}},
		"unknown page":        {req: Request{Callback: "prev|nope"}},
		"open unknown page":   {req: Request{Callback: "page|nope"}},
		"malformed callback":  {req: Request{Callback: "next"}, wantErr: pagex.ErrInvalidCallback},
		"malformed direction": {req: Request{ID: "p1", Direction: "up"}, wantErr: pagex.ErrInvalidOption},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := h.HandleRequest(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("HandleRequest failed: %v", err)
			}
			if resp.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v (%+v)", resp.Found, tt.wantFound, resp)
			}
			if !tt.wantFound {
				if resp.Page != nil || resp.Message == "" {
					t.Errorf("unexpected response %+v", resp)
				}
				return
			}
			if resp.Page == nil || resp.Page.ID != tt.wantPage {
				t.Errorf("got page %+v, want %s", resp.Page, tt.wantPage)
			}
		})
	}
}

func TestHandleMissingImage(t *testing.T) {
	h := newTestHandler(t)
	resp, err := h.HandleRequest(context.Background(), Request{Callback: "next|p1", IncludeImage: true})
	if err != nil {
		t.Fatalf("HandleRequest failed: %v", err)
	}
	if resp.Page == nil || resp.Page.ID != "p2" || resp.Page.Image != "" {
		t.Errorf("a page without an image should still be returned, got %+v", resp.Page)
	}
}
