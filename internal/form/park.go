package form

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/parks/internal/model"
)

// ParkInput is the add/edit park form, also used by POST /api/add.
type ParkInput struct {
	Name                string `form:"name" validate:"required,max=100"`
	MapURL              string `form:"map_url" validate:"required,http_url"`
	HasWC               bool   `form:"has_wc"`
	HasShop             bool   `form:"has_shop"`
	HasAdultSportArea   bool   `form:"has_adult_sport_area"`
	PlaygroundCondition int    `form:"playground_condition" validate:"rating"`
	PlaygroundVariety   int    `form:"playground_variety" validate:"rating"`
	Security            int    `form:"security" validate:"rating"`
	TreeCoverage        int    `form:"tree_coverage" validate:"rating"`
	PhotoURL            string `form:"photo_url" validate:"omitempty,http_url"`
}

// DecodePark reads a ParkInput from parsed form values. Checkboxes that
// are absent are false; see ParseBool for what counts as checked.
func DecodePark(values url.Values) ParkInput {
	return ParkInput{
		Name:                strings.TrimSpace(values.Get("name")),
		MapURL:              strings.TrimSpace(values.Get("map_url")),
		HasWC:               ParseBool(values.Get("has_wc")),
		HasShop:             ParseBool(values.Get("has_shop")),
		HasAdultSportArea:   ParseBool(values.Get("has_adult_sport_area")),
		PlaygroundCondition: parseRating(values.Get("playground_condition")),
		PlaygroundVariety:   parseRating(values.Get("playground_variety")),
		Security:            parseRating(values.Get("security")),
		TreeCoverage:        parseRating(values.Get("tree_coverage")),
		PhotoURL:            strings.TrimSpace(values.Get("photo_url")),
	}
}

// ParkInputFrom pre-fills the edit form.
func ParkInputFrom(p model.Park) ParkInput {
	return ParkInput{
		Name:                p.Name,
		MapURL:              p.MapURL,
		HasWC:               p.HasWC,
		HasShop:             p.HasShop,
		HasAdultSportArea:   p.HasAdultSportArea,
		PlaygroundCondition: p.PlaygroundCondition,
		PlaygroundVariety:   p.PlaygroundVariety,
		Security:            p.Security,
		TreeCoverage:        p.TreeCoverage,
		PhotoURL:            p.PhotoURL,
	}
}

// Park converts the input to a model.Park with the given id.
func (in ParkInput) Park(id int64) model.Park {
	return model.Park{
		ID:                  id,
		Name:                in.Name,
		MapURL:              in.MapURL,
		HasWC:               in.HasWC,
		HasShop:             in.HasShop,
		HasAdultSportArea:   in.HasAdultSportArea,
		PlaygroundCondition: in.PlaygroundCondition,
		PlaygroundVariety:   in.PlaygroundVariety,
		Security:            in.Security,
		TreeCoverage:        in.TreeCoverage,
		PhotoURL:            in.PhotoURL,
	}
}

// Values re-encodes the input for redisplay.
func (in ParkInput) Values() url.Values {
	v := url.Values{}
	v.Set("name", in.Name)
	v.Set("map_url", in.MapURL)
	if in.HasWC {
		v.Set("has_wc", "y")
	}
	if in.HasShop {
		v.Set("has_shop", "y")
	}
	if in.HasAdultSportArea {
		v.Set("has_adult_sport_area", "y")
	}
	v.Set("playground_condition", strconv.Itoa(in.PlaygroundCondition))
	v.Set("playground_variety", strconv.Itoa(in.PlaygroundVariety))
	v.Set("security", strconv.Itoa(in.Security))
	v.Set("tree_coverage", strconv.Itoa(in.TreeCoverage))
	v.Set("photo_url", in.PhotoURL)
	return v
}
