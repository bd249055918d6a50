package core

import (
	"context"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

func TestContentBounds(t *testing.T) {
	cases := []struct {
		w, h, offset int
		want         schema.Bounds
	}{
		{1200, 800, 72, schema.Bounds{Y: 72, Width: 1200, Height: 728}},
		{640, 72, 72, schema.Bounds{Y: 72, Width: 640, Height: 0}},
		{640, 10, 72, schema.Bounds{Y: 72, Width: 640, Height: 0}},
		{0, 0, 0, schema.Bounds{}},
	}
	for _, tc := range cases {
		if got := contentBounds(tc.w, tc.h, tc.offset); got != tc.want {
			t.Fatalf("contentBounds(%d,%d,%d) = %+v, want %+v", tc.w, tc.h, tc.offset, got, tc.want)
		}
	}
}

func TestViewControllerDetachOnlyMounted(t *testing.T) {
	window := &fakeWindow{width: 100, height: 200}
	view := newViewController(window, 72, pslog.Ctx(context.Background()))
	a := &fakeSurface{id: "a"}
	b := &fakeSurface{id: "b"}

	if err := view.attach(context.Background(), a); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := view.detach(context.Background(), b); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if window.unmounts != 0 || window.mounted != a {
		t.Fatalf("detaching an unmounted surface must be a no-op")
	}
	if err := view.attach(context.Background(), b); err != nil {
		t.Fatalf("attach b: %v", err)
	}
	if window.violations != 0 || window.mounted != b || window.unmounts != 1 {
		t.Fatalf("attach must replace the mounted surface, violations=%d unmounts=%d", window.violations, window.unmounts)
	}
	if err := view.detach(context.Background(), b); err != nil {
		t.Fatalf("detach b: %v", err)
	}
	if err := view.detach(context.Background(), b); err != nil {
		t.Fatalf("detach b twice: %v", err)
	}
	if window.unmounts != 2 || window.mounted != nil {
		t.Fatalf("expected idempotent detach, unmounts=%d", window.unmounts)
	}
}
