// Package ingest fetches source material from GitHub repositories for
// document generation. A generation request may name a repo file or
// directory instead of supplying inline source text.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// SourceFile is one file fetched from a repository.
type SourceFile struct {
	Path    string // Path within the repository
	Content string // Full file content
	SHA     string // File's Git blob SHA
}

// Fetcher retrieves source material from GitHub with rate limiting.
type Fetcher struct {
	client *github.Client
}

// NewFetcher creates a fetcher. The token is optional; unauthenticated
// requests work but with much lower rate limits.
func NewFetcher(token string) (*Fetcher, error) {
	// Handles both primary and secondary (abuse detection) rate limits
	// with automatic retry.
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}

	client := github.NewClient(rateLimiter)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Fetcher{client: client}, nil
}

// FetchFile fetches one file from a repository.
func (f *Fetcher) FetchFile(ctx context.Context, owner, repo, filePath string) (*SourceFile, error) {
	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, owner, repo, filePath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s/%s: %w", owner, repo, filePath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s/%s/%s is a directory, not a file", owner, repo, filePath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filePath, err)
	}

	return &SourceFile{
		Path:    filePath,
		Content: string(content),
		SHA:     fileContent.GetSHA(),
	}, nil
}

// FetchMarkdown fetches all markdown files under a repository directory,
// recursively. Pass an empty dir for the repository root.
func (f *Fetcher) FetchMarkdown(ctx context.Context, owner, repo, dir string) ([]SourceFile, error) {
	paths, err := f.listMarkdown(ctx, owner, repo, dir)
	if err != nil {
		return nil, err
	}

	files := make([]SourceFile, 0, len(paths))
	for _, p := range paths {
		file, err := f.FetchFile(ctx, owner, repo, p)
		if err != nil {
			return nil, err
		}
		files = append(files, *file)
	}
	return files, nil
}

// FetchSource fetches source material as one string. A path ending in a
// filename fetches that file; a directory path concatenates its markdown
// files.
func (f *Fetcher) FetchSource(ctx context.Context, owner, repo, filePath string) (string, error) {
	if strings.Contains(path.Base(filePath), ".") {
		file, err := f.FetchFile(ctx, owner, repo, filePath)
		if err != nil {
			return "", err
		}
		return file.Content, nil
	}

	files, err := f.FetchMarkdown(ctx, owner, repo, filePath)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no markdown files under %s/%s/%s", owner, repo, filePath)
	}

	var b strings.Builder
	for i, file := range files {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(file.Content)
	}
	return b.String(), nil
}

func (f *Fetcher) listMarkdown(ctx context.Context, owner, repo, dir string) ([]string, error) {
	var docs []string

	_, dirContents, _, err := f.client.Repositories.GetContents(ctx, owner, repo, dir, nil)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s/%s: %w", owner, repo, dir, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemPath := path.Join(dir, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".md") {
				docs = append(docs, itemPath)
			}
		case "dir":
			subDocs, err := f.listMarkdown(ctx, owner, repo, itemPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}

	return docs, nil
}
