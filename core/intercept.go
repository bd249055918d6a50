package core

import "pkt.systems/tabula/schema"

// OpensInBackground reports whether a link click inside a page should open
// the link in a background tab: a middle click, or a click with Ctrl or Meta held.
func OpensInBackground(click schema.LinkClick) bool {
	if click.Href == "" || !schema.HasTransferScheme(click.Href) {
		return false
	}
	return click.Button == 1 || click.Ctrl || click.Meta
}

// activateFor maps a window-open disposition onto the new tab's activation.
func activateFor(disposition schema.OpenDisposition) bool {
	return disposition != schema.OpenBackground
}

func isBlankOpen(url string) bool {
	return url == "" || url == "about:blank"
}
