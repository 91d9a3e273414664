package swagger

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

const DocumentURL = "/openapi.yml"

// Document is the parsed and validated API description.
type Document struct {
	raw []byte
	doc *openapi3.T
}

// Load reads the OpenAPI file and validates it, so a broken document fails
// server start instead of the Swagger UI.
func Load(ctx context.Context, path string) (*Document, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document %s: %w", path, err)
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return &Document{raw: raw, doc: doc}, nil
}

func (d *Document) Version() string {
	if d == nil || d.doc.Info == nil {
		return ""
	}
	return d.doc.Info.Version
}

// Paths lists the documented path templates.
func (d *Document) Paths() []string {
	if d == nil || d.doc.Paths == nil {
		return nil
	}
	return d.doc.Paths.InMatchingOrder()
}

// ServeHTTP serves the validated document as JSON, which the UI accepts for .yml URLs too.
func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(d.raw)
}

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(DocumentURL),
	)
}
