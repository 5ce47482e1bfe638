package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocumentURL is where the router serves the embedded OpenAPI document.
const DocumentURL = "/openapi.yml"

// Handler serves Swagger UI pointed at the embedded document.
func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(DocumentURL),
		httpSwagger.DocExpansion("list"),
	)
}
