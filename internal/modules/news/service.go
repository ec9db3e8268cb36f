// Package news fetches headlines from configured RSS feeds and
// filters them by instrument keywords. Feeds are used as context for
// the AI analysis, not persisted.
package news

import (
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// Headline is one matched feed item.
type Headline struct {
	Title     string     `json:"title"`
	Source    string     `json:"source"`
	Link      string     `json:"link"`
	Published *time.Time `json:"published,omitempty"`
}

// Service fetches and filters RSS headlines.
type Service struct {
	feeds  []string
	parser *gofeed.Parser
	log    zerolog.Logger
}

// NewService creates a new news service over the configured feed URLs.
func NewService(feeds []string, log zerolog.Logger) *Service {
	return &Service{
		feeds:  feeds,
		parser: gofeed.NewParser(),
		log:    log.With().Str("service", "news").Logger(),
	}
}

// FetchHeadlines returns up to limit headlines whose title or
// description mentions any of the keywords, newest first. A feed that
// fails to parse is skipped; one dead feed must not block the rest.
func (s *Service) FetchHeadlines(keywords []string, limit int) []Headline {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	if len(lowered) == 0 || limit <= 0 {
		return nil
	}

	var headlines []Headline
	for _, feedURL := range s.feeds {
		feed, err := s.parser.ParseURL(feedURL)
		if err != nil {
			s.log.Warn().Err(err).Str("feed", feedURL).Msg("Failed to parse feed, skipping")
			continue
		}

		for _, item := range feed.Items {
			if !matches(item, lowered) {
				continue
			}
			headlines = append(headlines, Headline{
				Title:     item.Title,
				Source:    feed.Title,
				Link:      item.Link,
				Published: item.PublishedParsed,
			})
		}
	}

	sortNewestFirst(headlines)
	if len(headlines) > limit {
		headlines = headlines[:limit]
	}

	return headlines
}

func matches(item *gofeed.Item, keywords []string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func sortNewestFirst(headlines []Headline) {
	sort.SliceStable(headlines, func(i, j int) bool {
		return newer(headlines[i], headlines[j])
	})
}

func newer(a, b Headline) bool {
	if a.Published == nil {
		return false
	}
	if b.Published == nil {
		return true
	}
	return a.Published.After(*b.Published)
}
