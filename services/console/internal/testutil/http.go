package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/haitiwallet/console/libs/httpmiddleware"
)

// Header is one extra request header for MakeRequest.
type Header struct {
	Key   string
	Value string
}

func Bearer(token string) Header {
	return Header{Key: "Authorization", Value: "Bearer " + token}
}

func RequestID(id string) Header {
	return Header{Key: httpmiddleware.RequestIDHeader, Value: id}
}

// MakeRequest sends body as JSON through router. A nil body is sent as null.
func MakeRequest(router http.Handler, method, path string, body any, headers ...Header) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, h := range headers {
		if h.Value != "" {
			req.Header.Set(h.Key, h.Value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func MakeAuthRequest(router http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	if token == "" {
		return MakeRequest(router, method, path, body)
	}
	return MakeRequest(router, method, path, body, Bearer(token))
}

func MakeAPIRequest(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	return MakeRequest(router, method, path, body)
}
