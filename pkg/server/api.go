package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Peripli/feature-browser/pkg/browser"
	"github.com/Peripli/feature-browser/pkg/httputils"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const (
	// SessionPathParam is the path parameter of the session id
	SessionPathParam = "session_id"

	// TypePathParam is the path parameter of the feature type
	TypePathParam = "type"

	// APIPrefix of the feature browser API
	APIPrefix = "/v1"

	// SessionsPath is the path of the sessions collection below APIPrefix
	SessionsPath = "/sessions"

	// SessionPath is the path of one session
	SessionPath = SessionsPath + "/{" + SessionPathParam + "}"

	// TypePath is the path of one feature type of a session
	TypePath = SessionPath + "/types/{" + TypePathParam + "}"
)

type sessionResponse struct {
	ID         string             `json:"id"`
	Selection  browser.Selection  `json:"selection"`
	Categories []browser.Category `json:"categories"`
	Total      int                `json:"total"`
	Busy       bool               `json:"busy"`
}

type featuresResponse struct {
	Items []sapi.Feature `json:"items"`
	Total int            `json:"total"`
	Busy  bool           `json:"busy"`
}

type sourceResponse struct {
	Type      string         `json:"type"`
	Items     []sapi.Feature `json:"items"`
	Total     *int           `json:"total"`
	Exhausted bool           `json:"exhausted"`
	Pulling   bool           `json:"pulling"`
}

type controller struct {
	registry *browser.Registry
}

func (c *controller) routes(router *mux.Router) {
	router.HandleFunc(SessionsPath, c.createSession).Methods(http.MethodPost)
	router.HandleFunc(SessionPath, c.getSession).Methods(http.MethodGet)
	router.HandleFunc(SessionPath, c.deleteSession).Methods(http.MethodDelete)
	router.HandleFunc(SessionPath+"/features", c.getFeatures).Methods(http.MethodGet)
	router.HandleFunc(SessionPath+"/pull_all", c.pullAll).Methods(http.MethodPost)
	router.HandleFunc(TypePath, c.getSource).Methods(http.MethodGet)
	router.HandleFunc(TypePath+"/scroll", c.scroll).Methods(http.MethodPost)
}

func (c *controller) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var selection browser.Selection
	if err := httputils.GetContent(&selection, r.Body); err != nil {
		httputils.WriteError(ctx, w, httputils.NewHTTPError(http.StatusBadRequest, "invalid selection: %s", err), http.StatusBadRequest)
		return
	}

	session, err := c.registry.Create(ctx, selection)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	httputils.WriteResponse(w, http.StatusCreated, newSessionResponse(session))
}

func (c *controller) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r)
	if !ok {
		return
	}
	httputils.WriteResponse(w, http.StatusOK, newSessionResponse(session))
}

func (c *controller) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)[SessionPathParam]
	if !c.registry.Delete(id) {
		httputils.WriteError(r.Context(), w, httputils.NewHTTPError(http.StatusNotFound, "session %s not found", id), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *controller) getFeatures(w http.ResponseWriter, r *http.Request) {
	session, ok := c.session(w, r)
	if !ok {
		return
	}
	httputils.WriteResponse(w, http.StatusOK, featuresResponse{
		Items: session.Features(),
		Total: session.Totals(),
		Busy:  session.Busy(),
	})
}

func (c *controller) pullAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := c.session(w, r)
	if !ok {
		return
	}

	wait, err := cast.ToBoolE(queryOrDefault(r, "wait", "false"))
	if err != nil {
		httputils.WriteError(ctx, w, httputils.NewHTTPError(http.StatusBadRequest, "invalid wait parameter: %s", err), http.StatusBadRequest)
		return
	}
	if !wait {
		session.StartPullAll()
		httputils.WriteResponse(w, http.StatusAccepted, newSessionResponse(session))
		return
	}

	if err := session.PullAll(ctx); err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	httputils.WriteResponse(w, http.StatusOK, newSessionResponse(session))
}

func (c *controller) getSource(w http.ResponseWriter, r *http.Request) {
	_, featureType, source, ok := c.source(w, r)
	if !ok {
		return
	}
	httputils.WriteResponse(w, http.StatusOK, newSourceResponse(featureType, source))
}

func (c *controller) scroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, featureType, source, ok := c.source(w, r)
	if !ok {
		return
	}

	index, err := cast.ToIntE(r.URL.Query().Get("index"))
	if err != nil || index < 0 {
		httputils.WriteError(ctx, w, httputils.NewHTTPError(http.StatusBadRequest, "index must be a non-negative integer"), http.StatusBadRequest)
		return
	}
	threshold, err := cast.ToIntE(queryOrDefault(r, "threshold", "0"))
	if err != nil {
		httputils.WriteError(ctx, w, httputils.NewHTTPError(http.StatusBadRequest, "threshold must be an integer"), http.StatusBadRequest)
		return
	}

	if err := session.OnScroll(ctx, featureType, index, threshold); err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	httputils.WriteResponse(w, http.StatusOK, newSourceResponse(featureType, source))
}

func (c *controller) session(w http.ResponseWriter, r *http.Request) (*browser.Session, bool) {
	id := mux.Vars(r)[SessionPathParam]
	session, found := c.registry.Get(id)
	if !found {
		httputils.WriteError(r.Context(), w, httputils.NewHTTPError(http.StatusNotFound, "session %s not found", id), http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (c *controller) source(w http.ResponseWriter, r *http.Request) (*browser.Session, string, *browser.FeatureSource, bool) {
	session, ok := c.session(w, r)
	if !ok {
		return nil, "", nil, false
	}
	featureType, err := url.PathUnescape(mux.Vars(r)[TypePathParam])
	if err != nil {
		httputils.WriteError(r.Context(), w, httputils.NewHTTPError(http.StatusBadRequest, "invalid feature type: %s", err), http.StatusBadRequest)
		return nil, "", nil, false
	}
	source, err := session.DataSource(featureType)
	if err != nil {
		httputils.WriteError(r.Context(), w, httputils.NewHTTPError(http.StatusNotFound, "%s", err), http.StatusNotFound)
		return nil, "", nil, false
	}
	return session, featureType, source, true
}

// writeUpstreamError reports failures of the atlas API as bad gateway
func writeUpstreamError(ctx context.Context, w http.ResponseWriter, err error) {
	var httpErr httputils.HTTPErrorResponse
	if errors.As(err, &httpErr) {
		err = httputils.NewHTTPError(http.StatusBadGateway, "atlas API responded with status %d: %s", httpErr.StatusCode, httpErr.ErrorMessage)
	} else if errors.Is(err, browser.ErrUnknownFeatureType) {
		err = httputils.NewHTTPError(http.StatusNotFound, "%s", err)
	}
	log.C(ctx).WithError(err).Debug("Request to the atlas API failed")
	httputils.WriteError(ctx, w, err, http.StatusBadGateway)
}

func queryOrDefault(r *http.Request, name, defaultValue string) string {
	if value := r.URL.Query().Get(name); value != "" {
		return value
	}
	return defaultValue
}

func newSessionResponse(session *browser.Session) sessionResponse {
	return sessionResponse{
		ID:         session.ID,
		Selection:  session.Selection,
		Categories: session.Categories(),
		Total:      session.Totals(),
		Busy:       session.Busy(),
	}
}

func newSourceResponse(featureType string, source *browser.FeatureSource) sourceResponse {
	response := sourceResponse{
		Type:      featureType,
		Items:     source.CurrentValue(),
		Exhausted: source.IsExhausted(),
		Pulling:   source.IsPulling(),
	}
	if total, known := source.Total(); known {
		response.Total = &total
	}
	return response
}
