package renderer

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChromiumPDFRenderer converts report markdown into a letter-sized PDF via
// headless Chromium. It satisfies the httpapi.PDFRenderer interface.
type ChromiumPDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{
		chromePath: detectChromePath(),
		timeout:    30 * time.Second,
	}
}

func (r *ChromiumPDFRenderer) RenderPDF(ctx context.Context, markdown string) ([]byte, error) {
	htmlDoc, err := buildHTML(markdown)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.5).
				WithPaperHeight(11).
				WithMarginTop(0.5).
				WithMarginBottom(0.75).
				WithMarginLeft(0.5).
				WithMarginRight(0.5).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

const reportCSS = `
body{font-family:Georgia,'Times New Roman',serif;color:#1c1917;max-width:900px;margin:0 auto;padding:0.6rem;line-height:1.45;}
h1{font-size:1.5rem;border-bottom:2px solid #1c1917;padding-bottom:0.3rem;}
h2{font-size:1.15rem;margin-top:1.4rem;border-bottom:1px solid #a8a29e;padding-bottom:0.2rem;break-after:avoid;}
h3{font-size:1rem;margin-top:1rem;}
table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;margin:0.6rem 0;}
th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
thead th{background:#f1f5f9;font-weight:700;}
blockquote{border-left:3px solid #92400e;margin:0.6rem 0;padding:0.2rem 0.65rem;color:#78350f;background:#fef3c7;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
@media print{ @page{size:letter;margin:12mm;} body{padding:0;} }
`

func buildHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Appraisal Report</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		content.String() +
		"</body></html>", nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
