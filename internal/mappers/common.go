package mappers

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// newObject creates the converted object for rec and copies its fields.
// The target's application ID wins over a fresh lookup so that every layer
// variant of one record shares it.
func newObject(scope driven.MapScope, rec *domain.NativeRecord, kind string, target driven.LayerTarget) *domain.ConvertedObject {
	id := target.ApplicationID
	if id == "" {
		id = scope.ApplicationID(rec.Ref())
	}
	obj := domain.NewConvertedObject(id, kind, target.Layer)
	for k, v := range rec.Fields {
		obj.Set(k, v)
	}
	obj.Set("nativeId", rec.ID())
	if rec.Name != "" {
		obj.Set("name", rec.Name)
	}
	return obj
}

// forwardRef sets key to the application ID of the first reference under
// name, without converting it.
func forwardRef(scope driven.MapScope, rec *domain.NativeRecord, obj *domain.ConvertedObject, name, key string) {
	refs := rec.References[name]
	if len(refs) == 0 {
		return
	}
	obj.Set(key, scope.ApplicationID(refs[0]))
}

// materializeNodes converts every node reference through the cache and
// returns their objects in order. A node that cannot be converted makes the
// referencing record invalid; NotReady is passed through unchanged.
func materializeNodes(ctx context.Context, scope driven.MapScope, rec *domain.NativeRecord, min int) ([]*domain.ConvertedObject, domain.Result) {
	refs := rec.References["nodes"]
	if len(refs) < min {
		return nil, domain.Failuref(domain.ErrValidation, "%s needs at least %d nodes, has %d", rec.ID(), min, len(refs))
	}
	nodes := make([]*domain.ConvertedObject, 0, len(refs))
	for _, ref := range refs {
		res := scope.Materialize(ctx, ref, domain.LayerBoth)
		switch res.Outcome {
		case domain.OutcomeSuccess:
			nodes = append(nodes, res.First())
		case domain.OutcomeNotReady:
			return nil, res
		case domain.OutcomeSkip:
			return nil, domain.Failuref(domain.ErrValidation, "%s: node %s skipped: %s", rec.ID(), ref, res.Reason)
		default:
			return nil, domain.Failure(fmt.Errorf("%w: %s: node %s: %w", domain.ErrValidation, rec.ID(), ref, res.Err))
		}
	}
	return nodes, domain.Success()
}

func ids(objs []*domain.ConvertedObject) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.ApplicationID)
	}
	return out
}

func position(obj *domain.ConvertedObject) (domain.Point, bool) {
	v, ok := obj.Get("position")
	if !ok {
		return domain.Point{}, false
	}
	p, ok := v.(domain.Point)
	return p, ok
}
