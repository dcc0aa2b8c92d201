package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderHTML opens the URL in a headless browser, waits for the page's
// scripts to build the DOM, and returns the rendered document. This is the
// entry-page transport for sites whose markup is assembled client-side;
// plain GET would return an empty application shell.
func RenderHTML(ctx context.Context, urlStr, userAgent string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, 30*time.Second)
	defer cancel()

	var res string
	err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(urlStr),
		chromedp.Sleep(5*time.Second), // let client-side rendering settle
		chromedp.OuterHTML("html", &res),
	)
	if err != nil {
		return nil, err
	}
	return []byte(res), nil
}
