package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"crptapi/docs"
)

// RegisterSwagger mounts the Swagger UI under /swagger/*. docs.SwaggerInfo is
// process-global, so it must be set here, before the app serves requests. An
// empty host makes the UI target whichever host served it.
func RegisterSwagger(app *fiber.App, host string, schemes ...string) {
	docs.SwaggerInfo.Host = host
	docs.SwaggerInfo.Schemes = schemes
	app.Get("/swagger/*", swagger.HandlerDefault)
}
