// Package docs provides generated OpenAPI documentation.
//
// docex API
//
//	@title			docex API
//	@version		1.0
//	@description	Document field extraction: upload an image or PDF, then extract named fields with local OCR or a hosted vision model.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/docex
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8000
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/docex/serve.go -o ./swagger --outputTypes go --parseDependency --parseInternal
