package chromehost

import (
	"encoding/json"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"pkt.systems/tabula/schema"
)

// translate maps a page-level CDP event onto a host event. Events for child
// frames and unrelated bindings report false.
func translate(id schema.SurfaceID, mainFrame cdp.FrameID, ev any) (schema.HostEvent, bool) {
	switch e := ev.(type) {
	case *page.EventFrameStartedNavigating:
		if e.FrameID != mainFrame {
			return schema.HostEvent{}, false
		}
		return schema.HostEvent{Kind: schema.HostNavigationStarted, Surface: id, URL: e.URL}, true
	case *page.EventFrameNavigated:
		if e.Frame == nil || e.Frame.ParentID != "" {
			return schema.HostEvent{}, false
		}
		return schema.HostEvent{Kind: schema.HostNavigationCommitted, Surface: id, URL: e.Frame.URL + e.Frame.URLFragment}, true
	case *page.EventNavigatedWithinDocument:
		if e.FrameID != mainFrame {
			return schema.HostEvent{}, false
		}
		return schema.HostEvent{Kind: schema.HostInPageNavigation, Surface: id, URL: e.URL}, true
	case *page.EventLoadEventFired:
		return schema.HostEvent{Kind: schema.HostLoadFinished, Surface: id}, true
	case *runtime.EventBindingCalled:
		if e.Name != linkClickBinding {
			return schema.HostEvent{}, false
		}
		var click schema.LinkClick
		if err := json.Unmarshal([]byte(e.Payload), &click); err != nil {
			return schema.HostEvent{}, false
		}
		return schema.HostEvent{Kind: schema.HostLinkClick, Surface: id, Click: &click}, true
	}
	return schema.HostEvent{}, false
}
