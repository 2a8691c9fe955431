package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/Peripli/service-manager/pkg/log"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// GetContent reads the body into the given struct
func GetContent(v interface{}, closer io.ReadCloser) error {
	defer closer.Close()
	body, err := io.ReadAll(closer)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

// SendRequest sends a request with the specified method, query params and JSON body to URL
func SendRequest(ctx context.Context, client *http.Client, method, URL string, params url.Values, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	request, err := http.NewRequestWithContext(ctx, method, URL, bodyReader)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if len(params) != 0 {
		q := request.URL.Query()
		for k, values := range params {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		request.URL.RawQuery = q.Encode()
	}

	return client.Do(request)
}

// HandleResponseError builds an HTTPErrorResponse from the given failure response
func HandleResponseError(ctx context.Context, response *http.Response) error {
	defer response.Body.Close()
	log.C(ctx).Debugf("Handling failure response with status %d", response.StatusCode)

	httpErr := HTTPErrorResponse{
		StatusCode: response.StatusCode,
		ErrorKey:   http.StatusText(response.StatusCode),
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "error handling failure response")
	}

	// the atlas API reports errors as {"detail": ...}, brokers and proxies as {"error", "description"}
	content := gjson.ParseBytes(body)
	if errorKey := content.Get("error"); errorKey.Type == gjson.String {
		httpErr.ErrorKey = errorKey.String()
	}
	switch {
	case content.Get("description").Exists():
		httpErr.ErrorMessage = content.Get("description").String()
	case content.Get("detail").Exists():
		httpErr.ErrorMessage = content.Get("detail").String()
	default:
		httpErr.ErrorMessage = string(body)
	}

	return httpErr
}

// WriteResponse writes the given status code and the given object body to the given ResponseWriter
func WriteResponse(w http.ResponseWriter, code int, object interface{}) {
	data, err := json.Marshal(object)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)
	w.Write(data)
}

// WriteError writes err as an HTTPErrorResponse. Errors that are not HTTPErrorResponses are
// reported with the fallback status code.
func WriteError(ctx context.Context, w http.ResponseWriter, err error, fallbackCode int) {
	var httpErr HTTPErrorResponse
	if !errors.As(err, &httpErr) {
		httpErr = NewHTTPError(fallbackCode, "%s", err.Error())
	}
	log.C(ctx).WithError(err).Errorf("Responding with status %d", httpErr.StatusCode)
	WriteResponse(w, httpErr.StatusCode, httpErr)
}
