package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

type HTTPServer struct {
	httpServer *http.Server
}

func NewHTTPServer(addr string, handler http.Handler) HTTPServer {
	handler = http.TimeoutHandler(handler, 5*time.Second, "unavailable")
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Second,
	}
	return HTTPServer{s}
}

// NewRouter mounts the API mux under basePath. Requests outside
// basePath get 404. When staticDir is set, files under it are served
// at basePath/wheels/.
func NewRouter(basePath, staticDir string, mux *http.ServeMux) http.Handler {
	base := normalizeBase(basePath)

	if staticDir != "" {
		mux.Handle("GET /wheels/", http.FileServer(http.Dir(staticDir)))
	}

	cookiePath := base
	if cookiePath == "" {
		cookiePath = "/"
	}

	var h http.Handler = CartKey(cookiePath)(AllowJSON(mux))
	if base == "" {
		return h
	}

	root := http.NewServeMux()
	root.Handle(base+"/", http.StripPrefix(base, h))
	return root
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("http server is listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected servers shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
