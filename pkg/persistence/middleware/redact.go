package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type redactMiddleware struct {
	next     ports.Recorder
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks every match of the
// patterns in the textual fields of an event before it is recorded.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return func(next ports.Recorder) ports.Recorder {
		if len(patterns) == 0 {
			return next
		}
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Record(ctx context.Context, event *domain.CommandEvent) error {
	// The engine may still hold the original.
	masked := *event
	masked.Detail = m.mask(masked.Detail)
	masked.Before = m.mask(masked.Before)
	masked.After = m.mask(masked.After)
	return m.next.Record(ctx, &masked)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
