package feeds

import (
	"context"
	"net/http"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

const summaryMaxWords = 60

// browserHeaders sets browser-like request headers so sites that check
// Accept or User-Agent don't reject the request with 406.
func browserHeaders(r *http.Request) {
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Newsdesk/1.0)")
}

// pageSummary fetches an article page and derives a short summary from
// its readable content. Used for general feeds whose entries carry no
// description, so the keyword filter and funding parser have text to
// work with. Failures return an empty summary; the item is still
// processed on its title alone.
func (a *Aggregator) pageSummary(ctx context.Context, articleURL string) string {
	a.waitForRateLimit(ctx, extractDomain(articleURL))

	article, err := readability.FromURL(articleURL, httpTimeout, browserHeaders)
	if err != nil {
		a.logger.Debug("summary extraction failed", "url", articleURL, "error", err)
		return ""
	}
	if excerpt := cleanText(article.Excerpt); excerpt != "" {
		return truncateWords(excerpt, summaryMaxWords)
	}
	return truncateWords(cleanText(article.TextContent), summaryMaxWords)
}

// truncateWords returns the first maxWords whitespace-delimited words
// from s. If s contains fewer than maxWords words, it is returned
// unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
