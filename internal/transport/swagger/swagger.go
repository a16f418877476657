// Package swagger publishes the API description and a browsable UI for it.
package swagger

import (
	"net/http"

	"github.com/go-chi/chi"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	DocPath = "/openapi.yml"
	UIPath  = "/swagger/*"
)

// Mount serves doc at DocPath and the swagger UI, pointed at it, under UIPath.
func Mount(r chi.Router, doc []byte) {
	r.Get(DocPath, DocHandler(doc))
	r.Handle(UIPath, httpSwagger.Handler(
		httpSwagger.URL(DocPath),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DeepLinking(true),
	))
}

func DocHandler(doc []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(doc)
	}
}
