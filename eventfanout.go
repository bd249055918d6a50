package tabula

import (
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnTabsUpdate(update schema.TabsUpdate) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabsUpdate(update)
	}
}

func (f eventFanout) OnNavUpdate(update schema.NavUpdate) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnNavUpdate(update)
	}
}

func (f eventFanout) OnBookmarksUpdate(update schema.BookmarksUpdate) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnBookmarksUpdate(update)
	}
}
