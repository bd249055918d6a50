package chromehost

import "github.com/chromedp/cdproto/target"

type openState int

const (
	openWaiting openState = iota + 1
	openReported
)

// pendingOpens tracks child targets opened by a page. A child created on
// about:blank is reported once it learns its real URL.
type pendingOpens map[target.ID]openState

func (p pendingOpens) observe(id target.ID, url string, created bool) (string, bool) {
	if p[id] == openReported {
		return "", false
	}
	if url == "" || url == "about:blank" {
		if created {
			p[id] = openWaiting
		}
		return "", false
	}
	if !created && p[id] != openWaiting {
		return "", false
	}
	p[id] = openReported
	return url, true
}

func (p pendingOpens) forget(id target.ID) {
	delete(p, id)
}
