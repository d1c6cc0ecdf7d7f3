// Copyright (c) Tailwise (dev@tailwise.app)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/tailwise/tailwise/internal/chat"
	"github.com/tailwise/tailwise/internal/config"
	"github.com/tailwise/tailwise/internal/file"
	"github.com/tailwise/tailwise/internal/handler/activateagent"
	"github.com/tailwise/tailwise/internal/handler/listprofiles"
	"github.com/tailwise/tailwise/internal/handler/listsessions"
	"github.com/tailwise/tailwise/internal/handler/refreshchat"
	"github.com/tailwise/tailwise/internal/handler/saveprofile"
	"github.com/tailwise/tailwise/internal/handler/selectsession"
	"github.com/tailwise/tailwise/internal/handler/sendmessage"
	"github.com/tailwise/tailwise/internal/handler/sendverification"
	"github.com/tailwise/tailwise/internal/handler/watchprofiles"
	"github.com/tailwise/tailwise/internal/httpapi"
	"github.com/tailwise/tailwise/internal/i18n"
	"github.com/tailwise/tailwise/internal/llm"
	"github.com/tailwise/tailwise/internal/petdb"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return fmt.Errorf("main: create firebase app: %w", err)
	}

	fbAuth, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("main: create firebase auth client: %w", err)
	}

	db, err := petdb.NewClient(ctx, fbApp)
	if err != nil {
		return fmt.Errorf("main: create petdb client: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close petdb client", "error", err)
		}
	}()

	storageClient, err := storage.NewGRPCClient(ctx)
	if err != nil {
		return fmt.Errorf("main: create storage client: %w", err)
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close storage client", "error", err)
		}
	}()
	files := file.NewIO(storageClient, conf.Google.Project+"-public")

	genAI, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		Project: conf.Google.Project,
	})
	if err != nil {
		return fmt.Errorf("main: creating genai client: %w", err)
	}

	oai := openai.NewClient()

	gateway := llm.NewGateway(&oai, genAI, conf.Chat)
	registry := chat.NewRegistry(db, db, gateway)

	fbMW := firebaseauth.NewMiddleware(fbAuth)
	mux.Use(middleware.Maybe(fbMW, func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/internal/")
	}))

	mux.Use(i18n.Middleware())

	httpapi.Handle(mux, "/api/profile/save", saveprofile.NewHandler(db, files).SaveProfile)
	httpapi.Handle(mux, "/api/profile/list", listprofiles.NewHandler(db).ListProfiles)
	mux.Get("/api/profile/watch", watchprofiles.NewHandler(db).ServeHTTP)

	httpapi.Handle(mux, "/api/chat/send", sendmessage.NewHandler(db, registry).SendMessage)
	httpapi.Handle(mux, "/api/chat/activate", activateagent.NewHandler(db, registry).ActivateAgent)
	httpapi.Handle(mux, "/api/chat/select", selectsession.NewHandler(db, registry).SelectSession)
	httpapi.Handle(mux, "/api/chat/refresh", refreshchat.NewHandler(db, registry).RefreshChat)
	httpapi.Handle(mux, "/api/chat/sessions", listsessions.NewHandler(db).ListSessions)

	httpapi.Handle(mux, "/api/auth/resendverification", sendverification.NewHandler(fbAuth).SendVerification)

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
