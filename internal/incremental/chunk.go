// Package incremental assembles a GraphQL response delivered as an initial
// chunk plus @defer/@stream patches into one progressively-completing result
// tree. It owns the wire-chunk model, the splice logic that merges patches
// into the raw data tree, and the per-request session state machine.
package incremental

import (
	"math"

	"github.com/tidwall/gjson"

	executor "github.com/unfoldgql/unfold/internal/executor"
)

// Chunk is one decoded unit of the incremental delivery wire format.
//
// The first chunk of a stream carries top-level data/errors/extensions and no
// path. Subsequent chunks address a position relative to the data root and
// carry either an object patch (data) or an array append patch (items),
// optionally nesting further chunks under incremental.
type Chunk struct {
	Data    any  // object patch, map[string]any or nil
	HasData bool // distinguishes data:null from an absent data member

	Items    []any
	HasItems bool

	Errors     []*executor.Error
	Extensions map[string]any

	HasNext bool
	Path    executor.Path
	Label   string

	Incremental []*Chunk
}

// DecodeChunk parses one raw JSON chunk. Malformed envelopes are protocol
// errors; the engine does not guess at intent.
func DecodeChunk(raw []byte) (*Chunk, error) {
	if !gjson.ValidBytes(raw) {
		return nil, executor.Errorf(executor.KindProtocol, nil, "chunk is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, executor.Errorf(executor.KindProtocol, nil, "chunk must be a JSON object")
	}
	return chunkFromResult(doc)
}

func chunkFromResult(doc gjson.Result) (*Chunk, error) {
	c := &Chunk{}

	if data := doc.Get("data"); data.Exists() {
		c.HasData = true
		switch data.Type {
		case gjson.Null:
			c.Data = nil
		case gjson.JSON:
			if !data.IsObject() {
				return nil, executor.Errorf(executor.KindProtocol, nil, "chunk data must be an object or null")
			}
			c.Data = data.Value()
		default:
			return nil, executor.Errorf(executor.KindProtocol, nil, "chunk data must be an object or null")
		}
	}

	if items := doc.Get("items"); items.Exists() {
		c.HasItems = true
		if items.Type != gjson.Null {
			if !items.IsArray() {
				return nil, executor.Errorf(executor.KindProtocol, nil, "chunk items must be an array or null")
			}
			arr, _ := items.Value().([]any)
			c.Items = arr
		}
	}

	if path := doc.Get("path"); path.Exists() {
		p, err := pathFromResult(path)
		if err != nil {
			return nil, err
		}
		c.Path = p
	}

	if errs := doc.Get("errors"); errs.IsArray() {
		for _, e := range errs.Array() {
			fieldErr := &executor.Error{
				Kind:    executor.KindFieldResolution,
				Message: e.Get("message").String(),
			}
			if p := e.Get("path"); p.Exists() {
				fp, err := pathFromResult(p)
				if err != nil {
					return nil, err
				}
				fieldErr.Path = fp
			}
			if ext, ok := e.Get("extensions").Value().(map[string]any); ok {
				fieldErr.Extensions = ext
			}
			c.Errors = append(c.Errors, fieldErr)
		}
	}

	if ext, ok := doc.Get("extensions").Value().(map[string]any); ok {
		c.Extensions = ext
	}

	c.HasNext = doc.Get("hasNext").Bool()
	c.Label = doc.Get("label").String()

	if inc := doc.Get("incremental"); inc.Exists() {
		if !inc.IsArray() {
			return nil, executor.Errorf(executor.KindProtocol, nil, "chunk incremental must be an array")
		}
		for _, sub := range inc.Array() {
			if !sub.IsObject() {
				return nil, executor.Errorf(executor.KindProtocol, nil, "incremental entry must be an object")
			}
			nested, err := chunkFromResult(sub)
			if err != nil {
				return nil, err
			}
			c.Incremental = append(c.Incremental, nested)
		}
	}

	return c, nil
}

func pathFromResult(path gjson.Result) (executor.Path, error) {
	if !path.IsArray() {
		return nil, executor.Errorf(executor.KindProtocol, nil, "chunk path must be an array of keys and indices")
	}
	elems := path.Array()
	out := make(executor.Path, 0, len(elems))
	for _, e := range elems {
		switch e.Type {
		case gjson.String:
			out = append(out, e.String())
		case gjson.Number:
			n := e.Float()
			if n != math.Trunc(n) || n < 0 {
				return nil, executor.Errorf(executor.KindProtocol, nil, "chunk path index %v is not a valid list index", n)
			}
			out = append(out, int(n))
		default:
			return nil, executor.Errorf(executor.KindProtocol, nil, "chunk path element %s is neither key nor index", e.Raw)
		}
	}
	return out, nil
}
