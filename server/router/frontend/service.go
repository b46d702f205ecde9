package frontend

import (
	"context"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/loconomy/internal/profile"
)

// apiPrefixes are left to the API and ops handlers.
var apiPrefixes = []string{"/api", "/metrics", "/healthz"}

type FrontendService struct {
	Profile *profile.Profile
}

func NewFrontendService(profile *profile.Profile) *FrontendService {
	return &FrontendService{
		Profile: profile,
	}
}

// Serve mounts the embedded concierge page with gzip for static assets.
func (*FrontendService) Serve(_ context.Context, e *echo.Echo) {
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:   5,
		Skipper: isAPIRequest,
	}))

	skipper := func(c echo.Context) bool {
		if isAPIRequest(c) {
			return true
		}

		c.Response().Header().Set("X-Content-Type-Options", "nosniff")

		// The page has no hashed assets, so nothing is cached.
		if filepath.Ext(c.Request().URL.Path) == "" || strings.HasSuffix(c.Request().URL.Path, ".html") {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		} else {
			c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
		}
		return false
	}

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: getFileSystem("static"),
		HTML5:      true,
		Skipper:    skipper,
	}))
}

func isAPIRequest(c echo.Context) bool {
	p := c.Request().URL.Path
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func getFileSystem(path string) http.FileSystem {
	fs, err := fs.Sub(embeddedFiles, path)
	if err != nil {
		panic(err)
	}
	return http.FS(fs)
}
