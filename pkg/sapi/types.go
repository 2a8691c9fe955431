package sapi

// FeatureType describes one kind of feature served by the atlas API and the parameters needed to query it
type FeatureType struct {
	Name                string   `json:"name"`
	Category            string   `json:"category,omitempty"`
	PathParams          []string `json:"path_params,omitempty"`
	RequiredQueryParams []string `json:"required_query_params,omitempty"`
}

// Link references an external resource of a feature
type Link struct {
	Href string `json:"href"`
}

// Feature is a dataset or measurement anchored in the selected atlas space
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Links       []Link `json:"link,omitempty"`
}
