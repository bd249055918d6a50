package chromehost

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	linkClickBinding = "__tabulaLinkClick"
	bookmarksEvent   = "tabula:bookmarks"
)

// linkClickScript reports middle clicks and Ctrl/Meta clicks on http(s)
// links and suppresses the default navigation.
const linkClickScript = `(() => {
  if (window.__tabulaClicks) return;
  window.__tabulaClicks = true;
  const handler = (e) => {
    if (!(e.button === 1 || e.ctrlKey || e.metaKey)) return;
    const el = e.target && e.target.closest ? e.target.closest("a[href]") : null;
    if (!el || !/^https?:/i.test(el.href)) return;
    e.preventDefault();
    e.stopPropagation();
    window.` + linkClickBinding + `(JSON.stringify({
      href: el.href, button: e.button,
      ctrlKey: e.ctrlKey, metaKey: e.metaKey, shiftKey: e.shiftKey, altKey: e.altKey
    }));
  };
  document.addEventListener("click", handler, true);
  document.addEventListener("auxclick", handler, true);
})();`

func installActions() []chromedp.Action {
	return []chromedp.Action{
		runtime.AddBinding(linkClickBinding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(linkClickScript).Do(ctx)
			return err
		}),
	}
}

func bookmarksScript(payload []byte) string {
	return `window.dispatchEvent(new CustomEvent("` + bookmarksEvent + `", {detail: ` + string(payload) + `}))`
}
