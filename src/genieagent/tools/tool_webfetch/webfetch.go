package tool_webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
)

// Tool name constant
const Name = "web_fetch"

const webFetchPrompt = `Fetch a web page such as a news story, injury report or rankings article.

WHEN TO USE THIS TOOL:
- A subtask names a specific URL, or a Reddit post links to an article worth reading

HOW TO USE:
- url: the http or https address to fetch
- format: "markdown" (default) for readable article text, "text" for plain text,
  or "html" for the raw page

LIMITATIONS:
- Pages larger than 5MB are cut off and long content is truncated
- Pages behind logins or bot protection cannot be read`

// WebFetchInput represents the parameters for web_fetch
type WebFetchInput struct {
	URL     string `json:"url" required:"true" description:"The URL to fetch content from"`
	Format  string `json:"format,omitempty" enum:"text,markdown,html" description:"The format to return the content in (text, markdown, or html)"`
	Timeout int    `json:"timeout,omitempty" description:"Optional timeout in seconds (max 60, default 20)"`
}

// WebFetchOutput represents the response from web_fetch
type WebFetchOutput struct {
	Title       string `json:"title,omitempty" description:"Page title when the content is HTML"`
	Content     string `json:"content" description:"The fetched content in the requested format"`
	StatusCode  int    `json:"status_code" description:"HTTP status code of the response"`
	URL         string `json:"url" description:"The final URL after any redirects"`
	ContentType string `json:"content_type,omitempty" description:"Content-Type header from the response"`
	Truncated   bool   `json:"truncated,omitempty" description:"Whether the content was shortened"`
}

// Options tune the fetcher.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxContent caps the returned content in bytes.
	MaxContent int
}

const maxBodySize = 5 * 1024 * 1024

// Tool returns the web_fetch tool.
func Tool(opts Options) (agent.Tool, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = "lox-genie/1.0"
	}
	if opts.MaxContent <= 0 {
		opts.MaxContent = 20000
	}
	return agent.NewGenericTool(Name, webFetchPrompt, func(ctx context.Context, input WebFetchInput) (WebFetchOutput, error) {
		return fetch(ctx, opts, input)
	})
}

func fetch(ctx context.Context, opts Options, input WebFetchInput) (WebFetchOutput, error) {
	format := strings.ToLower(input.Format)
	if format == "" {
		format = "markdown"
	}
	if format != "text" && format != "markdown" && format != "html" {
		return WebFetchOutput{}, fmt.Errorf("format must be one of: text, markdown, html")
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return WebFetchOutput{}, fmt.Errorf("URL must start with http:// or https://")
	}

	timeout := time.Duration(toolsutil.ClampInt(input.Timeout, 20, 1, 60)) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return WebFetchOutput{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return WebFetchOutput{}, fmt.Errorf("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WebFetchOutput{}, fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return WebFetchOutput{}, fmt.Errorf("failed to read response: %v", err)
	}

	content := string(body)
	contentType := resp.Header.Get("Content-Type")
	isHTML := strings.Contains(contentType, "text/html")
	out := WebFetchOutput{
		StatusCode:  resp.StatusCode,
		URL:         resp.Request.URL.String(),
		ContentType: contentType,
	}

	var doc *goquery.Document
	if isHTML && format != "html" {
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			toolsutil.GetLogger().Warn("failed to parse HTML, returning raw content", "error", err)
		} else {
			out.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}

	switch {
	case format == "html" || !isHTML && format == "text":
		out.Content = content
	case doc == nil && format == "markdown" && strings.Contains(contentType, "application/json"):
		out.Content = "```json\n" + content + "\n```"
	case doc == nil && format == "markdown":
		out.Content = "```\n" + content + "\n```"
	case doc == nil:
		out.Content = content
	case format == "text":
		out.Content = extractText(doc)
	default:
		markdown, err := convertToMarkdown(doc)
		if err != nil {
			toolsutil.GetLogger().Warn("failed to convert HTML to Markdown, returning text", "error", err)
			markdown = extractText(doc)
		}
		out.Content = markdown
	}

	if len(out.Content) > opts.MaxContent {
		out.Content = toolsutil.Truncate(out.Content, opts.MaxContent)
		out.Truncated = true
	}

	toolsutil.GetLogger().Info("fetched web content",
		"url", input.URL,
		"status", resp.StatusCode,
		"size", toolsutil.FormatBytes(int64(len(body))),
		"format", format,
	)
	return out, nil
}

// mainSelection narrows a page to its article body when one is marked up.
func mainSelection(doc *goquery.Document) *goquery.Selection {
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()
	for _, sel := range []string{"article", "main", "[role=main]"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body")
}

func extractText(doc *goquery.Document) string {
	text := mainSelection(doc).Text()
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n")
}

func convertToMarkdown(doc *goquery.Document) (string, error) {
	html, err := goquery.OuterHtml(mainSelection(doc))
	if err != nil {
		return "", err
	}
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return markdown, nil
}
