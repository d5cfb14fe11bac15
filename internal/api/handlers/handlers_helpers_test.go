package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/api/middleware"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

func newRequest(method, target, body string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	return httptest.NewRequest(method, target, rdr)
}

func asCaller(r *http.Request, id string, role entities.Role) *http.Request {
	return r.WithContext(middleware.WithCaller(r.Context(), middleware.Caller{ID: id, Role: role}))
}

// serve routes req through a mux so path values are populated
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}
