package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/model"
	"github.com/sells-group/fanout-cli/internal/orchestrator"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fan-out session as an HTTP API",
	Long:  "Starts a long-lived session exposing fan-out, response nodes, history, links, and credentials over JSON, plus an SSE change feed at /api/events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter mounts the session API.
func newRouter(env *appEnv) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/fanout", handleFanOut(env))

		r.Get("/nodes", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, env.Orc.Nodes())
		})
		r.Delete("/nodes", func(w http.ResponseWriter, _ *http.Request) {
			removed := env.Orc.ClearNodes()
			writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
		})
		r.Get("/nodes/{id}", func(w http.ResponseWriter, req *http.Request) {
			node, ok := env.Orc.Node(chi.URLParam(req, "id"))
			if !ok {
				writeError(w, http.StatusNotFound, "node not found")
				return
			}
			writeJSON(w, http.StatusOK, node)
		})
		r.Delete("/nodes/{id}", func(w http.ResponseWriter, req *http.Request) {
			if !env.Orc.RemoveNode(chi.URLParam(req, "id")) {
				writeError(w, http.StatusNotFound, "node not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query().Get("q")
			tag := req.URL.Query().Get("tag")
			writeJSON(w, http.StatusOK, env.Orc.SearchHistory(q, tag))
		})
		r.Delete("/history/{id}", func(w http.ResponseWriter, req *http.Request) {
			if !env.Orc.RemoveHistory(chi.URLParam(req, "id")) {
				writeError(w, http.StatusNotFound, "history entry not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Put("/history/{id}/tags", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Tags []string `json:"tags"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if !env.Orc.TagHistory(chi.URLParam(req, "id"), body.Tags) {
				writeError(w, http.StatusNotFound, "history entry not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/links", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, env.Orc.Links())
		})
		r.Post("/links", handleCreateLink(env))
		r.Patch("/links/{id}", handleUpdateLink(env))
		r.Delete("/links/{id}", func(w http.ResponseWriter, req *http.Request) {
			if !env.Orc.RemoveLink(chi.URLParam(req, "id")) {
				writeError(w, http.StatusNotFound, "link not found")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/keys", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, env.Orc.ListCredentials())
		})
		r.Put("/keys/{provider}", func(w http.ResponseWriter, req *http.Request) {
			provider, err := model.ParseProvider(chi.URLParam(req, "provider"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			var body struct {
				Key string `json:"key"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := env.Orc.SaveCredential(provider, body.Key); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/keys/{provider}", func(w http.ResponseWriter, req *http.Request) {
			provider, err := model.ParseProvider(chi.URLParam(req, "provider"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if !env.Orc.DeleteCredential(provider) {
				writeError(w, http.StatusNotFound, "no key stored")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/keys/{provider}/check", func(w http.ResponseWriter, req *http.Request) {
			provider, err := model.ParseProvider(chi.URLParam(req, "provider"))
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, env.Orc.ValidateCredential(req.Context(), provider))
		})

		r.Get("/events", env.Broker.ServeHTTP)
	})

	return r
}

func handleFanOut(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Prompt    string   `json:"prompt"`
			Providers []string `json:"providers"`
			Tags      []string `json:"tags"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		providers := make([]model.Provider, 0, len(body.Providers))
		for _, raw := range body.Providers {
			p, err := model.ParseProvider(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			providers = append(providers, p)
		}

		entry, err := env.Orc.FanOut(req.Context(), orchestrator.FanOutRequest{
			Prompt:    body.Prompt,
			Providers: providers,
			Tags:      body.Tags,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, entry)
	}
}

func handleCreateLink(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SourceNodeID string `json:"source_node_id"`
			TargetNodeID string `json:"target_node_id"`
			Kind         string `json:"kind"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		kind, err := model.ParseLinkKind(body.Kind)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		link, err := env.Orc.CreateLink(body.SourceNodeID, body.TargetNodeID, kind)
		if err != nil {
			status := http.StatusBadRequest
			if eris.Is(err, orchestrator.ErrNodeNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, link)
	}
}

func handleUpdateLink(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Status   *string `json:"status"`
			Feedback *string `json:"feedback"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var patch model.LinkPatch
		if body.Status != nil {
			status := model.LinkStatus(*body.Status)
			switch status {
			case model.LinkStatusPending, model.LinkStatusCompleted, model.LinkStatusError:
			default:
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown link status %q", *body.Status))
				return
			}
			patch.Status = &status
		}
		patch.Feedback = body.Feedback

		if !env.Orc.UpdateLink(chi.URLParam(req, "id"), patch) {
			writeError(w, http.StatusNotFound, "link not found")
			return
		}
		link, _ := env.Orc.Link(chi.URLParam(req, "id"))
		writeJSON(w, http.StatusOK, link)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
