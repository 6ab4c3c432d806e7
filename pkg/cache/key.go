package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/plotwise/plotwise/pkg/models"
)

// refreshParam is the descriptor field that carries a force-refresh nonce.
const refreshParam = "refresh"

// Descriptor is the canonical identity of an operation request.
// Two descriptors with the same operation and equal normalized parameters
// produce the same key regardless of the order parameters were added.
type Descriptor struct {
	Op     models.Operation
	params map[string]any
}

// NewDescriptor starts a descriptor for op.
func NewDescriptor(op models.Operation) *Descriptor {
	return &Descriptor{Op: op, params: make(map[string]any)}
}

// With sets a parameter. Strings are trimmed and case-folded, string lists
// are normalized and sorted. Setting a name twice keeps the last value.
func (d *Descriptor) With(name string, value any) *Descriptor {
	d.params[name] = canonical(value)
	return d
}

// Refresh folds a force-refresh nonce into the descriptor so the resulting
// key never collides with the non-forced entry.
func (d *Descriptor) Refresh(nonce string) *Descriptor {
	d.params[refreshParam] = nonce
	return d
}

// Forced reports whether a refresh nonce has been folded in.
func (d *Descriptor) Forced() bool {
	_, ok := d.params[refreshParam]
	return ok
}

// Key returns "<operation>:<sha256 hex>" over the sorted parameter set.
func (d *Descriptor) Key() string {
	h := sha256.New()
	h.Write([]byte(d.Op))
	// encoding/json writes map keys in sorted order, and so does fmt.
	data, err := json.Marshal(d.params)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", d.params))
	}
	h.Write(data)
	return fmt.Sprintf("%s:%x", d.Op, h.Sum(nil))
}

func canonical(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return canonicalString(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.String {
			return v
		}
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s := canonicalString(rv.Index(i).String()); s != "" {
				out = append(out, s)
			}
		}
		sort.Strings(out)
		return out
	case reflect.Float32, reflect.Float64:
		// JSON has no encoding for these; keep them distinct as strings.
		if f := rv.Float(); math.IsInf(f, 0) || math.IsNaN(f) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return v
	default:
		return v
	}
}

func canonicalString(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Blank reports whether s normalizes to the empty string.
func Blank(s string) bool {
	return canonicalString(s) == ""
}
