package capture

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"textile-studio/utils"
)

// waits for fonts and every <img> of the mirror, errors count as loaded
const waitForAssetsJS = `
(function() {
	return Promise.all([
		document.fonts.ready,
		Promise.all(Array.from(document.querySelectorAll('img')).map(img => {
			return new Promise((resolve) => {
				if (img.complete && img.naturalWidth > 0 && img.naturalHeight > 0) {
					resolve();
					return;
				}
				const timeout = setTimeout(() => resolve(), 5000);
				img.onload = () => { clearTimeout(timeout); resolve(); };
				img.onerror = () => { clearTimeout(timeout); resolve(); };
			});
		}))
	]).then(() => true);
})();
`

const removeGarmentBaseJS = `document.querySelectorAll('[data-garment-base]').forEach(el => el.remove()); true;`

// ChromeRasterizer screenshots the mirror document in headless Chrome.
// Every network request of the page is paused and only let through when
// checkURL accepts it.
type ChromeRasterizer struct {
	chromePath string
	timeout    time.Duration
	checkURL   func(ctx context.Context, u string) error
}

var _ Rasterizer = (*ChromeRasterizer)(nil)

// NewChromeRasterizer creates a rasterizer; an empty chromePath is detected
func NewChromeRasterizer(chromePath string, timeout time.Duration) *ChromeRasterizer {
	if chromePath == "" {
		chromePath = DetectChromePath()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ChromeRasterizer{chromePath: chromePath, timeout: timeout, checkURL: allowAssetURL}
}

// allowAssetURL accepts inline data and https urls on public addresses
func allowAssetURL(ctx context.Context, u string) error {
	if strings.HasPrefix(u, "data:") {
		return nil
	}
	return utils.CheckPublicURL(ctx, u)
}

// screen lets a paused request continue or fails it
func (r *ChromeRasterizer) screen(ctx context.Context, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(ctx, c.Target)

	if err := r.checkURL(ctx, ev.Request.URL); err != nil {
		log.Printf("🚫 Chrome capture: blocked asset request: %v", err)
		if err := fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil {
			log.Printf("⚠️  Chrome capture: failed to block request: %v", err)
		}
		return
	}
	if err := fetch.ContinueRequest(ev.RequestID).Do(execCtx); err != nil {
		log.Printf("⚠️  Chrome capture: failed to continue request: %v", err)
	}
}

// DetectChromePath detects the path to Chrome/Chromium executable.
// Checks CHROME_PATH env var first, then common installation paths.
func DetectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (r *ChromeRasterizer) Rasterize(ctx context.Context, t *Target) ([]byte, error) {
	doc := t.Mirror.Document()
	if doc == "" {
		return nil, fmt.Errorf("target %s has no document", t.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("hide-scrollbars", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	chromedp.ListenTarget(chromedpCtx, func(ev interface{}) {
		if paused, ok := ev.(*fetch.EventRequestPaused); ok {
			go r.screen(chromedpCtx, paused)
		}
	})

	selector := fmt.Sprintf(`[id="%s"]`, t.ID)
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}

	started := time.Now()
	var buf []byte
	var ok bool
	actions := []chromedp.Action{
		chromedp.EmulateViewport(int64(t.Tier.Size), int64(t.Tier.Size)),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}),
		fetch.Enable(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Evaluate(waitForAssetsJS, &ok, awaitPromise),
	}
	if !t.Tier.WithProduct {
		actions = append(actions, chromedp.Evaluate(removeGarmentBaseJS, &ok))
	}
	actions = append(actions, chromedp.Screenshot(selector, &buf, chromedp.ByQuery))

	if err := chromedp.Run(chromedpCtx, actions...); err != nil {
		return nil, fmt.Errorf("failed to capture %s: %w", t.ID, err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty screenshot for %s", t.ID)
	}

	log.Printf("📸 Chrome capture %s: %d bytes in %s", t.ID, len(buf), time.Since(started).Round(time.Millisecond))
	return buf, nil
}
