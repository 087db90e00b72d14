// Package model defines the data structures used throughout the application.
// The `json` tags shape the API; the `gorm` tags drive the Postgres
// backend. The SQLite repository scans columns by hand.
package model

import "fmt"

// Rating bounds. Every quality rating on a park is a whole number in
// [MinRating, MaxRating].
const (
	MinRating = 1
	MaxRating = 5
)

// Park is one catalogued park: where it is, which amenities it has and how
// the community rates it.
//
// The JSON field names double as the column names and as the allow-listed
// keys accepted by PATCH /api/update/{id}.
type Park struct {
	ID                  int64  `json:"id"                   gorm:"primaryKey"`
	Name                string `json:"name"                 gorm:"column:name;uniqueIndex;not null"`
	MapURL              string `json:"map_url"              gorm:"column:map_url;not null"`
	HasWC               bool   `json:"has_wc"               gorm:"column:has_wc;not null;default:false"`
	HasShop             bool   `json:"has_shop"             gorm:"column:has_shop;not null;default:false"`
	HasAdultSportArea   bool   `json:"has_adult_sport_area" gorm:"column:has_adult_sport_area;not null;default:false"`
	PlaygroundCondition int    `json:"playground_condition" gorm:"column:playground_condition;not null"`
	PlaygroundVariety   int    `json:"playground_variety"   gorm:"column:playground_variety;not null"`
	Security            int    `json:"security"             gorm:"column:security;not null"`
	TreeCoverage        int    `json:"tree_coverage"        gorm:"column:tree_coverage;not null"`
	PhotoURL            string `json:"photo_url"            gorm:"column:photo_url;not null;default:''"`
}

// TableName pins the gorm table name so both backends share one schema.
func (Park) TableName() string { return "parks" }

// Change is one field whose proposed value differs from the stored one.
type Change struct {
	Field string
	From  string
	To    string
}

// Diff lists the fields that differ between p and proposed, in display
// order. IDs are never compared.
func (p Park) Diff(proposed Park) []Change {
	var changes []Change
	add := func(field string, from, to any) {
		f, t := fmt.Sprint(from), fmt.Sprint(to)
		if f != t {
			changes = append(changes, Change{Field: field, From: f, To: t})
		}
	}

	add("name", p.Name, proposed.Name)
	add("map_url", p.MapURL, proposed.MapURL)
	add("has_wc", yesNo(p.HasWC), yesNo(proposed.HasWC))
	add("has_shop", yesNo(p.HasShop), yesNo(proposed.HasShop))
	add("has_adult_sport_area", yesNo(p.HasAdultSportArea), yesNo(proposed.HasAdultSportArea))
	add("playground_condition", p.PlaygroundCondition, proposed.PlaygroundCondition)
	add("playground_variety", p.PlaygroundVariety, proposed.PlaygroundVariety)
	add("security", p.Security, proposed.Security)
	add("tree_coverage", p.TreeCoverage, proposed.TreeCoverage)
	add("photo_url", p.PhotoURL, proposed.PhotoURL)

	return changes
}

// YesNo renders an amenity flag the way it appears on pages, emails and in
// the chat prompt.
func YesNo(b bool) string { return yesNo(b) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
