package browser

import (
	"net/url"

	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/service-manager/pkg/util/slice"
)

// Query parameters understood by the feature listings of the atlas API
const (
	ParamSpace        = "space_id"
	ParamParcellation = "parcellation_id"
	ParamRegion       = "region_id"
	ParamBBox         = "bbox"
)

// Selection is the atlas context in which features are browsed
type Selection struct {
	Space        string `json:"space_id"`
	Parcellation string `json:"parcellation_id"`
	Region       string `json:"region_id"`
	BBox         string `json:"bbox"`
}

// Params returns the query parameters of the non-empty parts of the selection
func (s Selection) Params() url.Values {
	params := url.Values{}
	for name, value := range s.values() {
		if value != "" {
			params.Set(name, value)
		}
	}
	return params
}

func (s Selection) values() map[string]string {
	return map[string]string{
		ParamSpace:        s.Space,
		ParamParcellation: s.Parcellation,
		ParamRegion:       s.Region,
		ParamBBox:         s.BBox,
	}
}

// FilterFeatureTypes keeps the feature types whose path and required query parameters are
// provided by the selection. Parameters unknown to Selection are not checked.
func FilterFeatureTypes(types []sapi.FeatureType, selection Selection) []sapi.FeatureType {
	result := make([]sapi.FeatureType, 0, len(types))
	values := selection.values()
	for _, featureType := range types {
		required := append(append([]string{}, featureType.PathParams...), featureType.RequiredQueryParams...)
		satisfied := true
		for name, value := range values {
			if value == "" && slice.StringsAnyEquals(required, name) {
				satisfied = false
				break
			}
		}
		if satisfied {
			result = append(result, featureType)
		}
	}
	return result
}

// Category is a named group of feature types
type Category struct {
	Name  string             `json:"name"`
	Types []sapi.FeatureType `json:"types"`
}

// GroupByCategory groups feature types by category in order of first appearance.
// Types without a category are dropped.
func GroupByCategory(types []sapi.FeatureType) []Category {
	categories := make([]Category, 0)
	index := make(map[string]int)
	for _, featureType := range types {
		if featureType.Category == "" {
			continue
		}
		i, ok := index[featureType.Category]
		if !ok {
			i = len(categories)
			index[featureType.Category] = i
			categories = append(categories, Category{Name: featureType.Category})
		}
		categories[i].Types = append(categories[i].Types, featureType)
	}
	return categories
}
