package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
)

// patchSetter decodes one JSON value onto a park field.
type patchSetter func(p *model.Park, raw json.RawMessage) error

// patchable is the complete list of fields PATCH may change. Anything not
// listed here, the id included, is ignored.
var patchable = map[string]patchSetter{
	"name": func(p *model.Park, raw json.RawMessage) error {
		return decodeString(raw, &p.Name)
	},
	"map_url": func(p *model.Park, raw json.RawMessage) error {
		return decodeString(raw, &p.MapURL)
	},
	"photo_url": func(p *model.Park, raw json.RawMessage) error {
		return decodeString(raw, &p.PhotoURL)
	},
	"has_wc":               boolSetter(func(p *model.Park) *bool { return &p.HasWC }),
	"has_shop":             boolSetter(func(p *model.Park) *bool { return &p.HasShop }),
	"has_adult_sport_area": boolSetter(func(p *model.Park) *bool { return &p.HasAdultSportArea }),
	"playground_condition": intSetter(func(p *model.Park) *int { return &p.PlaygroundCondition }),
	"playground_variety":   intSetter(func(p *model.Park) *int { return &p.PlaygroundVariety }),
	"security":             intSetter(func(p *model.Park) *int { return &p.Security }),
	"tree_coverage":        intSetter(func(p *model.Park) *int { return &p.TreeCoverage }),
}

func decodeString(raw json.RawMessage, dst *string) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.New("must be a string")
	}
	*dst = strings.TrimSpace(s)
	return nil
}

func boolSetter(field func(*model.Park) *bool) patchSetter {
	return func(p *model.Park, raw json.RawMessage) error {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return errors.New("must be true or false")
		}
		*field(p) = b
		return nil
	}
}

func intSetter(field func(*model.Park) *int) patchSetter {
	return func(p *model.Park, raw json.RawMessage) error {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.New("must be a whole number")
		}
		*field(p) = n
		return nil
	}
}

// Patch applies the allow-listed fields in fields to park id.
//
// Each value must have the field's JSON type, and the patched park must
// still pass the same validation as the edit form. Unknown keys are
// logged and skipped; a body with nothing applicable is a no-op.
func (s *ParkService) Patch(ctx context.Context, id int64, fields map[string]json.RawMessage) (*model.Park, error) {
	park, err := s.repo.GetPark(ctx, id)
	if err != nil {
		return nil, err
	}

	applied := 0
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		set, ok := patchable[key]
		if !ok {
			s.logger.Warn("ignoring unknown patch field",
				slog.Int64("id", id),
				slog.String("field", key),
			)
			continue
		}
		raw := fields[key]
		if string(bytes.TrimSpace(raw)) == "null" {
			return nil, apperror.ValidationFailed(key, key+" must not be null")
		}
		if err := set(park, raw); err != nil {
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("%s %s", key, err))
		}
		applied++
	}

	if applied == 0 {
		return park, nil
	}

	if err := s.validator.Validate(form.ParkInputFrom(*park)); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, park.Name, id); err != nil {
		return nil, err
	}

	return s.save(ctx, *park)
}
