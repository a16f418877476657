package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/transport"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
)

// OpenAPIValidator checks requests against the API description before they
// reach a handler. Requests the document does not describe pass through so
// the router can answer 404 or 405 itself.
type OpenAPIValidator struct {
	router   routers.Router
	basePath string
	base     *transport.BaseHandler
}

// NewOpenAPIValidator loads and validates doc. Paths in the document are
// relative to basePath.
func NewOpenAPIValidator(doc []byte, basePath string, logger *slog.Logger) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	// match on path only, basePath is stripped per request
	spec.Servers = nil

	router, err := legacyrouter.NewRouter(spec)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &OpenAPIValidator{
		router:   router,
		basePath: strings.TrimSuffix(basePath, "/"),
		base:     transport.NewBaseHandler(logger),
	}, nil
}

func (v *OpenAPIValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lookup := r.Clone(r.Context())
		lookup.URL.Path = strings.TrimPrefix(r.URL.Path, v.basePath)

		route, pathParams, err := v.router.FindRoute(lookup)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			v.base.HandleServiceError(w, requestError(err))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestError(err error) *appErrors.AppError {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		return appErrors.NewValidationFieldError(field, reqErr.Error(), appErrors.ErrCodeValidationFailed)
	}
	return appErrors.NewValidationError(err.Error(), appErrors.ErrCodeValidationFailed)
}
