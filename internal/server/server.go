// Package server serves a built site for local preview.
//
// Only GET and HEAD are allowed. Responses carry an ETag derived from the
// file content and honor If-None-Match; textual types are gzipped when the
// client accepts it.
package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/hints"
)

// DefaultPort is the port the server listens on unless configured.
const DefaultPort = 8000

// ErrListen indicates the server could not bind its address.
var ErrListen = errors.New("cannot start server")

const shutdownTimeout = 5 * time.Second

// compressible lists the non-text media types worth compressing.
var compressible = map[string]bool{
	"application/json":       true,
	"application/javascript": true,
	"application/xml":        true,
	"image/svg+xml":          true,
}

// Server serves the files below a directory.
type Server struct {
	dir  string
	log  zerolog.Logger
	echo *echo.Echo
}

// New creates a Server for dir.
func New(dir string, log zerolog.Logger) *Server {
	s := &Server{dir: dir, log: log, echo: echo.New()}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.log.Info()
			if v.Error != nil {
				ev = s.log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: skipCompression,
	}))
	e.Any("/*", s.serveFile)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()
	s.log.Info().Str("addr", addr).Str("dir", s.dir).Msg("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %v%s", ErrListen, err, hints.ForListen(portOf(addr)))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

func (s *Server) serveFile(c echo.Context) error {
	req := c.Request()
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		c.Response().Header().Set(echo.HeaderAllow, "GET, HEAD")
		return errorPage(c, http.StatusMethodNotAllowed, "405 Method Not Allowed",
			fmt.Sprintf("The %s method is not supported", req.Method))
	}

	urlPath, err := url.PathUnescape(req.URL.EscapedPath())
	if err != nil {
		return errorPage(c, http.StatusBadRequest, "400 Bad Request",
			fmt.Sprintf("The path could not be decoded: %q", req.URL.EscapedPath()))
	}
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	file := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+urlPath)))
	if !fileutil.IsPathUnderDir(file, s.dir) || !fileutil.FileExists(file) {
		return errorPage(c, http.StatusNotFound, "404 Not Found",
			fmt.Sprintf("Requested: %q", urlPath))
	}

	data, err := os.ReadFile(file) // #nosec G304 -- contained in the served directory
	if err != nil {
		return errorPage(c, http.StatusInternalServerError, "500 Internal Server Error", err.Error())
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
	h := c.Response().Header()
	h.Set("Cache-Control", "public, must-revalidate")
	h.Set(echo.HeaderVary, echo.HeaderAcceptEncoding)
	h.Set("ETag", etag)

	if req.Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	contentType := contentTypeOf(file, data)
	if req.Method == http.MethodHead {
		h.Set(echo.HeaderContentType, contentType)
		h.Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
		return c.NoContent(http.StatusOK)
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// handleError renders errors that escape the handlers, such as router errors.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	title := fmt.Sprintf("%d %s", code, http.StatusText(code))
	if err := errorPage(c, code, title, err.Error()); err != nil {
		s.log.Error().Err(err).Msg("cannot write error page")
	}
}

func errorPage(c echo.Context, code int, title, detail string) error {
	page := `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>body { font-family: sans-serif; } main { margin: auto; padding: 20px; width: fit-content; }</style>
</head>
<body>
<main>
<h1>` + html.EscapeString(title) + `</h1>
<p>` + html.EscapeString(detail) + `</p>
</main>
</body>
</html>
`
	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	return c.HTMLBlob(code, []byte(page))
}

// contentTypeOf guesses the media type from the extension, then the content.
func contentTypeOf(file string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(file)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

// skipCompression skips gzip for HEAD requests and for files whose type is
// not textual.
func skipCompression(c echo.Context) bool {
	if c.Request().Method == http.MethodHead {
		return true
	}
	p := c.Request().URL.Path
	if p == "/" || p == "" {
		p = "/index.html"
	}
	t := mime.TypeByExtension(path.Ext(p))
	if t == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return true
	}
	return !strings.HasPrefix(mediaType, "text/") && !compressible[mediaType]
}

func portOf(addr string) int {
	i := strings.LastIndexByte(addr, ':')
	if i < 0 {
		return DefaultPort
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return DefaultPort
	}
	return port
}
