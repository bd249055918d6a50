package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"pkt.systems/tabula/schema"
)

// Args are the positional JSON arguments of a command.
type Args []json.RawMessage

// MakeArgs encodes plain values as positional arguments.
func MakeArgs(values ...any) (Args, error) {
	args := make(Args, 0, len(values))
	for _, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		args = append(args, raw)
	}
	return args, nil
}

func (a Args) present(i int) bool {
	if i < 0 || i >= len(a) {
		return false
	}
	raw := bytes.TrimSpace(a[i])
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// String returns argument i as a string. A missing or null argument is "".
func (a Args) String(i int) (string, error) {
	if !a.present(i) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", fmt.Errorf("%w: argument %d must be a string", schema.ErrInvalidArgs, i+1)
	}
	return s, nil
}

// Index returns argument i as a tab index. JSON numbers are truncated and
// strings are read like a decimal integer prefix ("2", " 3px"). Anything
// else reports -1, which every index based command ignores.
func (a Args) Index(i int) int {
	n, ok := a.integer(i)
	if !ok {
		return -1
	}
	return n
}

// Int reads a required integer argument.
func (a Args) Int(i int) (int, error) {
	if !a.present(i) {
		return 0, fmt.Errorf("%w: argument %d is required", schema.ErrInvalidArgs, i+1)
	}
	n, ok := a.integer(i)
	if !ok {
		return 0, fmt.Errorf("%w: argument %d must be an integer", schema.ErrInvalidArgs, i+1)
	}
	return n, nil
}

func (a Args) integer(i int) (int, bool) {
	if !a.present(i) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(a[i], &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return int(math.Trunc(f)), true
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return 0, false
	}
	return parseIntPrefix(s)
}

// Activate reads the new-tab options argument: either {"activate": bool}
// or a bare bool. Missing means nil (the default).
func (a Args) Activate(i int) (*bool, error) {
	if !a.present(i) {
		return nil, nil
	}
	var b bool
	if err := json.Unmarshal(a[i], &b); err == nil {
		return &b, nil
	}
	var opts struct {
		Activate *bool `json:"activate"`
	}
	if err := json.Unmarshal(a[i], &opts); err != nil {
		return nil, fmt.Errorf("%w: argument %d must be an options object", schema.ErrInvalidArgs, i+1)
	}
	return opts.Activate, nil
}

func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
