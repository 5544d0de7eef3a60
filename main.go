package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/landledger/backoffice/internal/audit"
	"github.com/landledger/backoffice/internal/backoffice"
	"github.com/landledger/backoffice/internal/config"
	"github.com/landledger/backoffice/internal/db"
	"github.com/landledger/backoffice/internal/landapi"
	"github.com/landledger/backoffice/internal/middleware"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: ", err)
	}

	lands := landapi.NewClient(landapi.Options{
		BaseURL:       cfg.APIURL,
		Timeout:       cfg.APITimeout,
		RatePerSecond: cfg.APIRate,
		Tokens:        landapi.ContextToken{},
	})

	deps := backoffice.Deps{Lands: lands}
	if cfg.DatabaseURL != "" {
		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		if err := audit.Init(gdb); err != nil {
			log.Fatal("Failed to initialize audit module: ", err)
		}
		recorder := audit.NewRecorder(gdb)
		deps.Recorder = recorder
		deps.History = recorder
	} else {
		log.Println("DATABASE_URL not set, review audit trail disabled")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/api", backoffice.SetupRoutes(deps))

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
