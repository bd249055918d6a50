package chromehost

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"pkt.systems/tabula/schema"
)

const testFrame = cdp.FrameID("T1")

func TestTranslateMainFrameNavigation(t *testing.T) {
	ev, ok := translate("T1", testFrame, &page.EventFrameStartedNavigating{FrameID: testFrame, URL: "https://a.com/"})
	if !ok || ev.Kind != schema.HostNavigationStarted || ev.URL != "https://a.com/" || ev.Surface != "T1" {
		t.Fatalf("unexpected started event: %+v ok=%v", ev, ok)
	}
	ev, ok = translate("T1", testFrame, &page.EventFrameNavigated{Frame: &cdp.Frame{ID: testFrame, URL: "https://a.com/x", URLFragment: "#top"}})
	if !ok || ev.Kind != schema.HostNavigationCommitted || ev.URL != "https://a.com/x#top" {
		t.Fatalf("unexpected committed event: %+v ok=%v", ev, ok)
	}
	ev, ok = translate("T1", testFrame, &page.EventNavigatedWithinDocument{FrameID: testFrame, URL: "https://a.com/x#b"})
	if !ok || ev.Kind != schema.HostInPageNavigation {
		t.Fatalf("unexpected in-page event: %+v ok=%v", ev, ok)
	}
	ev, ok = translate("T1", testFrame, &page.EventLoadEventFired{})
	if !ok || ev.Kind != schema.HostLoadFinished {
		t.Fatalf("unexpected load event: %+v ok=%v", ev, ok)
	}
}

func TestTranslateIgnoresChildFrames(t *testing.T) {
	if _, ok := translate("T1", testFrame, &page.EventFrameStartedNavigating{FrameID: "child", URL: "https://ads.example/"}); ok {
		t.Fatalf("expected child frame start to be ignored")
	}
	if _, ok := translate("T1", testFrame, &page.EventFrameNavigated{Frame: &cdp.Frame{ID: "child", ParentID: testFrame, URL: "https://ads.example/"}}); ok {
		t.Fatalf("expected child frame commit to be ignored")
	}
	if _, ok := translate("T1", testFrame, &page.EventNavigatedWithinDocument{FrameID: "child"}); ok {
		t.Fatalf("expected child frame in-page navigation to be ignored")
	}
	if _, ok := translate("T1", testFrame, &page.EventFrameNavigated{}); ok {
		t.Fatalf("expected frameless event to be ignored")
	}
}

func TestTranslateLinkClickBinding(t *testing.T) {
	ev, ok := translate("T1", testFrame, &runtime.EventBindingCalled{
		Name:    linkClickBinding,
		Payload: `{"href":"https://b.com/","button":1,"ctrlKey":false,"metaKey":false,"shiftKey":true,"altKey":false}`,
	})
	if !ok || ev.Kind != schema.HostLinkClick || ev.Click == nil {
		t.Fatalf("unexpected click event: %+v ok=%v", ev, ok)
	}
	if ev.Click.Href != "https://b.com/" || ev.Click.Button != 1 || !ev.Click.Shift {
		t.Fatalf("unexpected click payload: %+v", ev.Click)
	}
	if _, ok := translate("T1", testFrame, &runtime.EventBindingCalled{Name: "other", Payload: "{}"}); ok {
		t.Fatalf("expected foreign binding to be ignored")
	}
	if _, ok := translate("T1", testFrame, &runtime.EventBindingCalled{Name: linkClickBinding, Payload: "nope"}); ok {
		t.Fatalf("expected malformed payload to be ignored")
	}
}

func TestPendingOpensWaitsForRealURL(t *testing.T) {
	opens := pendingOpens{}
	if _, ok := opens.observe("c1", "about:blank", true); ok {
		t.Fatalf("blank child should wait")
	}
	url, ok := opens.observe("c1", "https://c.com/", false)
	if !ok || url != "https://c.com/" {
		t.Fatalf("expected open once url known, got %q ok=%v", url, ok)
	}
	if _, ok := opens.observe("c1", "https://c.com/next", false); ok {
		t.Fatalf("expected a single report per child")
	}
	opens.forget("c1")
	if len(opens) != 0 {
		t.Fatalf("expected forget to drop state, got %v", opens)
	}
}

func TestPendingOpensReportsImmediateURL(t *testing.T) {
	opens := pendingOpens{}
	url, ok := opens.observe("c2", "https://d.com/", true)
	if !ok || url != "https://d.com/" {
		t.Fatalf("expected immediate report, got %q ok=%v", url, ok)
	}
	if _, ok := opens.observe("c3", "https://e.com/", false); ok {
		t.Fatalf("expected unseen child info change to be ignored")
	}
}

func TestBookmarksScriptCarriesPayload(t *testing.T) {
	script := bookmarksScript([]byte(`[{"url":"https://a.com","title":"A"}]`))
	if !strings.Contains(script, bookmarksEvent) || !strings.Contains(script, `"title":"A"`) {
		t.Fatalf("unexpected script: %s", script)
	}
}

func TestWritePlaceholderUsesFileScheme(t *testing.T) {
	url, err := writePlaceholder(t.TempDir())
	if err != nil {
		t.Fatalf("write placeholder: %v", err)
	}
	if !schema.IsPlaceholderURL(url) || !strings.HasSuffix(url, placeholderName) {
		t.Fatalf("unexpected placeholder url %q", url)
	}
}
