// Package fetcher implements C5, the Page Fetcher: a headless-browser
// render of an article URL into (HTML, plain text), classifying skippable
// content types before ever launching a browser. Grounded on the reference
// codebase's internal/web/web.go (chromedp ExecAllocator/Navigate/OuterHTML,
// and the extractText/cleanText HTML-to-plain-text tree walk, the closest Go
// analog of html2text's decorator-stripping conversion).
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"github.com/metalwhale/newswaters/internal/model"
)

type Fetcher struct {
	http *http.Client
}

func New() *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: 30 * time.Second}}
}

// FetchURL implements the state machine of spec.md §4.4: a PDF content-type
// short-circuits to Skipped without touching the browser; otherwise render
// via a fresh, never-kept-warm headless browser instance and convert the
// resulting HTML to plain text, turning any HTML-to-text panic into
// Canceled rather than letting it propagate.
func (f *Fetcher) FetchURL(ctx context.Context, itemID int32, url string) (result model.ItemURL, err error) {
	contentType, err := f.probeContentType(ctx, url)
	if err != nil {
		return model.Canceled(itemID, err.Error()), nil
	}
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return model.Skipped(itemID, fmt.Sprintf("Skipped: %s", contentType)), nil
	}

	htmlContent, err := renderPage(ctx, url)
	if err != nil {
		return model.Canceled(itemID, err.Error()), nil
	}

	text, convErr := convertHTMLToText(htmlContent)
	if convErr != nil {
		return model.Canceled(itemID, convErr.Error()), nil
	}
	return model.Finished(itemID, htmlContent, text), nil
}

func (f *Fetcher) probeContentType(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return resp.Header.Get("Content-Type"), nil
}

// renderPage launches a headless browser configured incognito, no-sandbox,
// single-process, disable-gpu, no-zygote, opens a new page at url, and
// captures the DOM serialization as HTML. Transient browser-launch config
// errors are surfaced to the caller, which maps them to Canceled.
func renderPage(ctx context.Context, url string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("incognito", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("single-process", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-zygote", true),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return htmlContent, nil
}

// convertHTMLToText strips tags/decoration and yields plain text, recovering
// from any panic in the tree walk and converting it into an error, mirroring
// the original's std::panic::catch_unwind boundary around the HTML-to-text
// conversion.
func convertHTMLToText(htmlContent string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("an error occurred while converting html to text: %v", r)
		}
	}()
	doc, parseErr := html.Parse(strings.NewReader(htmlContent))
	if parseErr != nil {
		return "", parseErr
	}
	var sb strings.Builder
	extractText(doc, &sb)
	return cleanText(sb.String()), nil
}

func extractText(n *html.Node, sb *strings.Builder) int {
	length := 0
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		length += len(n.Data)
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return 0
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		length += extractText(c, sb)
	}
	return length
}

func cleanText(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
