package core

import (
	"context"
	"errors"
	"strings"

	"pkt.systems/tabula/internal/logx"
	"pkt.systems/tabula/schema"
)

func (s *service) ListBookmarks(ctx context.Context, _ schema.ListBookmarksRequest) (schema.ListBookmarksResponse, error) {
	if ctx == nil {
		return schema.ListBookmarksResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.ListBookmarksResponse{Bookmarks: cloneBookmarks(s.bookmarks)}, nil
}

// AddBookmark saves the active tab. Tabs without an http(s) URL and URLs
// already present leave the list unchanged.
func (s *service) AddBookmark(ctx context.Context, _ schema.AddBookmarkRequest) (schema.AddBookmarkResponse, error) {
	if ctx == nil {
		return schema.AddBookmarkResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.tabs.current()
	if current == nil {
		return schema.AddBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusIgnored}, nil
	}
	url := current.surface.URL()
	if url == "" {
		url = current.url
	}
	if !schema.HasTransferScheme(url) || s.bookmarkIndexLocked(url) >= 0 {
		return schema.AddBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusIgnored}, nil
	}
	title := current.title
	if title == "" {
		title = url
	}
	s.bookmarks = append(s.bookmarks, schema.Bookmark{URL: url, Title: title})
	s.persistBookmarksLocked(ctx)
	s.broadcastBookmarksLocked(ctx)
	logx.WithURL(logx.Ctx(ctx), url).Info("service bookmark added", "count", len(s.bookmarks))
	return schema.AddBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusApplied}, nil
}

func (s *service) RemoveBookmark(ctx context.Context, req schema.RemoveBookmarkRequest) (schema.RemoveBookmarkResponse, error) {
	if ctx == nil {
		return schema.RemoveBookmarkResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(req.URL) == "" {
		return schema.RemoveBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusIgnored}, nil
	}
	kept := s.bookmarks[:0:0]
	for _, b := range s.bookmarks {
		if b.URL != req.URL {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(s.bookmarks) {
		return schema.RemoveBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusIgnored}, nil
	}
	s.bookmarks = kept
	s.persistBookmarksLocked(ctx)
	s.broadcastBookmarksLocked(ctx)
	logx.WithURL(logx.Ctx(ctx), req.URL).Info("service bookmark removed", "count", len(s.bookmarks))
	return schema.RemoveBookmarkResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusApplied}, nil
}

// ImportBookmarks appends every http(s) entry whose URL is not saved yet,
// keeping the order of req.
func (s *service) ImportBookmarks(ctx context.Context, req schema.ImportBookmarksRequest) (schema.ImportBookmarksResponse, error) {
	if ctx == nil {
		return schema.ImportBookmarksResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, b := range req.Bookmarks {
		url := strings.TrimSpace(b.URL)
		if !schema.HasTransferScheme(url) || s.bookmarkIndexLocked(url) >= 0 {
			continue
		}
		title := strings.TrimSpace(b.Title)
		if title == "" {
			title = url
		}
		s.bookmarks = append(s.bookmarks, schema.Bookmark{URL: url, Title: title})
		added++
	}
	if added == 0 {
		return schema.ImportBookmarksResponse{Bookmarks: cloneBookmarks(s.bookmarks), Status: schema.StatusIgnored}, nil
	}
	s.persistBookmarksLocked(ctx)
	s.broadcastBookmarksLocked(ctx)
	logx.Ctx(ctx).Info("service bookmarks imported", "added", added, "skipped", len(req.Bookmarks)-added, "count", len(s.bookmarks))
	return schema.ImportBookmarksResponse{Bookmarks: cloneBookmarks(s.bookmarks), Added: added, Status: schema.StatusApplied}, nil
}

func (s *service) bookmarkIndexLocked(url string) int {
	for i, b := range s.bookmarks {
		if b.URL == url {
			return i
		}
	}
	return -1
}

// loadBookmarks degrades to an empty list on any store failure.
func (s *service) loadBookmarks() []schema.Bookmark {
	if s.store == nil {
		return []schema.Bookmark{}
	}
	list, ok, err := s.store.Load()
	if err != nil {
		s.logger.Warn("service bookmarks load failed", "err", err)
		return []schema.Bookmark{}
	}
	if !ok || list == nil {
		return []schema.Bookmark{}
	}
	return list
}

func (s *service) persistBookmarksLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(cloneBookmarks(s.bookmarks)); err != nil {
		logx.Ctx(ctx).Warn("service bookmarks save failed", "err", err)
	}
}

func cloneBookmarks(list []schema.Bookmark) []schema.Bookmark {
	out := make([]schema.Bookmark, len(list))
	copy(out, list)
	return out
}
