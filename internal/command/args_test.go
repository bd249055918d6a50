package command

import (
	"encoding/json"
	"errors"
	"testing"

	"pkt.systems/tabula/schema"
)

func rawArgs(values ...string) Args {
	args := make(Args, 0, len(values))
	for _, v := range values {
		args = append(args, json.RawMessage(v))
	}
	return args
}

func TestArgsIndex(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`2`, 2},
		{`2.9`, 2},
		{`"3"`, 3},
		{`" 4px"`, 4},
		{`"-1"`, -1},
		{`"abc"`, -1},
		{`""`, -1},
		{`null`, -1},
		{`true`, -1},
		{`{"i":1}`, -1},
		{`1e12`, -1},
	}
	for _, tc := range cases {
		if got := rawArgs(tc.raw).Index(0); got != tc.want {
			t.Fatalf("Index(%s) = %d, want %d", tc.raw, got, tc.want)
		}
	}
	if got := (Args{}).Index(0); got != -1 {
		t.Fatalf("expected missing index to be -1, got %d", got)
	}
}

func TestArgsString(t *testing.T) {
	got, err := rawArgs(`"example.com"`).String(0)
	if err != nil || got != "example.com" {
		t.Fatalf("unexpected string arg %q err=%v", got, err)
	}
	got, err = (Args{}).String(0)
	if err != nil || got != "" {
		t.Fatalf("expected missing string to be empty, got %q err=%v", got, err)
	}
	if _, err := rawArgs(`42`).String(0); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected ErrInvalidArgs, got %v", err)
	}
}

func TestArgsInt(t *testing.T) {
	n, err := rawArgs(`800`).Int(0)
	if err != nil || n != 800 {
		t.Fatalf("unexpected int %d err=%v", n, err)
	}
	if _, err := (Args{}).Int(0); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected missing int to fail, got %v", err)
	}
	if _, err := rawArgs(`"wide"`).Int(0); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected non-integer to fail, got %v", err)
	}
}

func TestArgsActivate(t *testing.T) {
	v, err := rawArgs(`"u"`, `{"activate":false}`).Activate(1)
	if err != nil || v == nil || *v {
		t.Fatalf("expected activate=false from object, got %v err=%v", v, err)
	}
	v, err = rawArgs(`"u"`, `true`).Activate(1)
	if err != nil || v == nil || !*v {
		t.Fatalf("expected activate=true from bool, got %v err=%v", v, err)
	}
	v, err = rawArgs(`"u"`, `{}`).Activate(1)
	if err != nil || v != nil {
		t.Fatalf("expected default activate, got %v err=%v", v, err)
	}
	v, err = rawArgs(`"u"`).Activate(1)
	if err != nil || v != nil {
		t.Fatalf("expected default activate for missing options, got %v err=%v", v, err)
	}
	if _, err := rawArgs(`"u"`, `"yes"`).Activate(1); !errors.Is(err, schema.ErrInvalidArgs) {
		t.Fatalf("expected invalid options to fail, got %v", err)
	}
}

func TestMakeArgs(t *testing.T) {
	args, err := MakeArgs("https://a.com", map[string]bool{"activate": false})
	if err != nil {
		t.Fatalf("make args: %v", err)
	}
	if url, _ := args.String(0); url != "https://a.com" {
		t.Fatalf("unexpected url arg %q", url)
	}
	if v, _ := args.Activate(1); v == nil || *v {
		t.Fatalf("expected activate=false, got %v", v)
	}
}
