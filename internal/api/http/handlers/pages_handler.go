package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"
)

// PagePaths are the browser navigation targets. Paths under /signin and
// /signup are public; every other page needs a session.
var PagePaths = []string{
	"/",
	"/signin",
	"/signup",
	"/dashboard",
	"/projects",
	"/projects/:id",
	"/projects/:id/board",
	"/my-tasks",
	"/tasks/new",
	"/tasks/:taskId",
	"/users",
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s | %s</title>
</head>
<body data-page="%s">
<div id="app"></div>
</body>
</html>
`

// PagesHandler serves the HTML shell the browser client mounts into.
type PagesHandler struct {
	appName string
}

// NewPagesHandler constructs handler.
func NewPagesHandler(appName string) *PagesHandler {
	return &PagesHandler{appName: appName}
}

// Render writes the shell for the matched page route.
func (h *PagesHandler) Render(c *fiber.Ctx) error {
	route := c.Route().Path
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.SendString(fmt.Sprintf(pageShell, html.EscapeString(route), html.EscapeString(h.appName), html.EscapeString(route)))
}
