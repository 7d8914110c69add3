package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/draftnight/draftnight/internal/config"
	"github.com/draftnight/draftnight/internal/httpapi"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	handler := httpapi.NewHandler(
		services.Drafts,
		services.Picks,
		services.AutoPicker,
		services.Queue,
		services.Challenges,
		services.Windows,
	)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      c.Handler(handler.Routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
