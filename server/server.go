package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"Tracksmith/logger"

	"github.com/gorilla/mux"
)

// NewRouter wires every API route onto a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/timeline", h.GetTimelineHandler).Methods(http.MethodGet)
	api.HandleFunc("/operations", h.GetOperationsHandler).Methods(http.MethodGet)

	api.HandleFunc("/staging", h.GetStagingHandler).Methods(http.MethodGet)
	api.HandleFunc("/staging", h.StageHandler).Methods(http.MethodPost)
	api.HandleFunc("/staging/{index:[0-9]+}", h.UnstageHandler).Methods(http.MethodDelete)

	api.HandleFunc("/tracks", h.AddTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{track:[0-9]+}/clips", h.AddClipHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{track:[0-9]+}/select", h.SelectTrackHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{track:[0-9]+}/clips/{clip}/drag", h.DragClipHandler).Methods(http.MethodPost)
	api.HandleFunc("/tracks/{track:[0-9]+}/edit", h.EditTrackHandler).Methods(http.MethodPost)

	api.HandleFunc("/master", h.UpdateMasterHandler).Methods(http.MethodPost)
	api.HandleFunc("/export", h.ExportHandler).Methods(http.MethodPost)
	api.HandleFunc("/project/save", h.SaveProjectHandler).Methods(http.MethodPost)

	router.HandleFunc("/ws", h.WebSocketHandler)
	return router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h *APIHandler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // exports run inside the request
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
