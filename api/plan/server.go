package plan

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/auvplan/infra/logger"
)

// Serve exposes handlers on addr until ctx is canceled. Each request is
// bounded by timeout.
func Serve(ctx context.Context, addr string, handlers map[string]http.Handler, timeout time.Duration) error {
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.Handle(path, http.TimeoutHandler(h, timeout, "request timed out"))
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log := logger.New("plan-api")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving plan api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
