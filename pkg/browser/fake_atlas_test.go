package browser_test

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/onsi/gomega/ghttp"
	"github.com/tidwall/sjson"
)

const featureTypesJSON = `[
	{"name":"Receptor","category":"molecular","required_query_params":["parcellation_id","region_id"]},
	{"name":"Image","category":"cellular","required_query_params":["space_id","bbox"]},
	{"name":"Connectivity","category":"connectivity","path_params":["parcellation_id"]},
	{"name":"Uncategorized","required_query_params":[]}
]`

var featuresPath = regexp.MustCompile(`^/v3_0/feature/([^/_][^/]*)$`)

// fakeAtlas serves the feature types above and featureCount[type] numbered features per type
type fakeAtlas struct {
	*ghttp.Server

	mutex        sync.Mutex
	featureCount map[string]int
	queries      map[string][]string
	block        chan struct{}
}

func newFakeAtlas(featureCount map[string]int) *fakeAtlas {
	atlas := &fakeAtlas{
		Server:       ghttp.NewServer(),
		featureCount: featureCount,
		queries:      make(map[string][]string),
	}
	atlas.RouteToHandler(http.MethodGet, "/v3_0/feature/_types", func(w http.ResponseWriter, r *http.Request) {
		body, _ := sjson.SetRaw(`{"total":4,"page":1,"size":50,"pages":1}`, "items", featureTypesJSON)
		w.Write([]byte(body))
	})
	atlas.RouteToHandler(http.MethodGet, featuresPath, atlas.serveFeatures)
	return atlas
}

func (a *fakeAtlas) settings() *sapi.Settings {
	settings := sapi.DefaultSettings()
	settings.URL = a.URL() + "/v3_0"
	settings.PageSize = 2
	return settings
}

func (a *fakeAtlas) blockFeatures() chan struct{} {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.block = make(chan struct{})
	return a.block
}

func (a *fakeAtlas) queriesOf(featureType string) []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]string{}, a.queries[featureType]...)
}

func (a *fakeAtlas) serveFeatures(w http.ResponseWriter, r *http.Request) {
	featureType := featuresPath.FindStringSubmatch(r.URL.Path)[1]

	a.mutex.Lock()
	a.queries[featureType] = append(a.queries[featureType], r.URL.RawQuery)
	count, known := a.featureCount[featureType]
	block := a.block
	a.mutex.Unlock()

	if !known {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"unknown feature type"}`))
		return
	}
	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	pages := (count + size - 1) / size
	items := make([]string, 0, size)
	for i := (page - 1) * size; i < page*size && i < count; i++ {
		items = append(items, fmt.Sprintf(`{"id":"%s-%d","name":"%s %d","category":"x"}`, featureType, i, featureType, i))
	}
	fmt.Fprintf(w, `{"items":[%s],"total":%d,"page":%d,"size":%d,"pages":%d}`, strings.Join(items, ","), count, page, size, pages)
}
