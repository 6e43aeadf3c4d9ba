package render

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Chromedp returns a RenderFunc backed by a headless Chrome instance.
// Each call launches its own browser context; the Cache's concurrency
// limit keeps the number of simultaneous instances bounded.
func Chromedp() RenderFunc {
	return func(ctx context.Context, url, waitSelector string, headers map[string]string) (string, error) {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
		defer cancelAlloc()

		taskCtx, cancelTask := chromedp.NewContext(allocCtx)
		defer cancelTask()

		tasks := chromedp.Tasks{}
		if len(headers) > 0 {
			extra := make(network.Headers, len(headers))
			for k, v := range headers {
				extra[k] = v
			}
			tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(extra))
		}
		tasks = append(tasks, chromedp.Navigate(url))
		if waitSelector != "" {
			tasks = append(tasks, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
		}

		var html string
		tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

		if err := chromedp.Run(taskCtx, tasks); err != nil {
			return "", err
		}
		return html, nil
	}
}
