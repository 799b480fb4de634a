package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxTextContent = 5000

// FetchError indicates a network or HTTP failure while fetching a page
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ScrapedContent is the extracted content of a web page
type ScrapedContent struct {
	URL           string
	Title         string
	TextContent   string
	FaviconURL    string
	OGImageURL    string
	OGDescription string
}

// Scraper fetches web pages and extracts readable content and metadata
type Scraper struct {
	client *http.Client
}

// New creates a scraper with a bounded request timeout
func New() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads a URL and extracts its title, readable text, and metadata
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*ScrapedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	return &ScrapedContent{
		URL:           pageURL,
		Title:         extractTitle(doc),
		TextContent:   extractText(doc),
		FaviconURL:    extractFavicon(doc, pageURL),
		OGImageURL:    extractOGImage(doc),
		OGDescription: extractOGDescription(doc),
	}, nil
}

// extractTitle prefers og:title over the <title> tag
func extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && content != "" {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractText pulls the visible body text, whitespace-normalized and capped
func extractText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, iframe, nav, footer").Remove()

	text := strings.Join(strings.Fields(body.Text()), " ")
	if len(text) > maxTextContent {
		text = text[:maxTextContent]
	}
	return text
}

// extractFavicon probes icon link tags, falling back to /favicon.ico
func extractFavicon(doc *goquery.Document, baseURL string) string {
	var href string
	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		rel = strings.ToLower(rel)
		if rel == "icon" || rel == "shortcut icon" || rel == "apple-touch-icon" {
			if h, ok := sel.Attr("href"); ok && h != "" {
				href = h
				return false
			}
		}
		return true
	})

	if href != "" {
		if resolved := resolveURL(baseURL, href); resolved != "" {
			return resolved
		}
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s://%s/favicon.ico", parsed.Scheme, parsed.Host)
}

// extractOGImage tries og:image then twitter:image
func extractOGImage(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && content != "" {
		return content
	}
	return ""
}

// extractOGDescription tries og:description then the meta description
func extractOGDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && content != "" {
		return content
	}
	return ""
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}
