package gate

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds gate options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetAuthScheme() string
	GetAPIKey() string
}

// ContentFetcher retrieves raw content bytes for a guarded item. Content
// storage is a collaborator: the gate only decides whether to call it.
type ContentFetcher interface {
	FetchContent(ctx context.Context, contentType ContentType, slug string) ([]byte, error)
}

// ContentFetcherFunc adapts a function into a ContentFetcher.
type ContentFetcherFunc func(ctx context.Context, contentType ContentType, slug string) ([]byte, error)

// FetchContent satisfies the ContentFetcher interface.
func (f ContentFetcherFunc) FetchContent(ctx context.Context, contentType ContentType, slug string) ([]byte, error) {
	if f == nil {
		return nil, ErrContentUnavailable
	}
	return f(ctx, contentType, slug)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
