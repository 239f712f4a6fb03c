package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"ludotheque/internal/middleware"
	"ludotheque/internal/models"
)

// StaticFallback sert les fichiers du frontend pour les routes inconnues.
// Les chemins sous /api/ et les fichiers absents donnent un 404 JSON.
func StaticFallback(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if dir != "" && (method == http.MethodGet || method == http.MethodHead) &&
			!strings.HasPrefix(c.Request.URL.Path, "/api/") {
			if file, ok := resolveStatic(dir, c.Request.URL.Path); ok {
				c.File(file)
				return
			}
		}

		c.JSON(http.StatusNotFound, models.NewErrorResponse("Route non trouvée", middleware.GetRequestID(c)))
	}
}

func resolveStatic(dir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	file := filepath.Join(dir, filepath.FromSlash(clean))

	info, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		file = filepath.Join(file, "index.html")
		if info, err = os.Stat(file); err != nil || info.IsDir() {
			return "", false
		}
	}
	return file, true
}
