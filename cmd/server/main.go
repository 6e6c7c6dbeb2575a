package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ragchatbot/server/internal/api"
	"github.com/ragchatbot/server/internal/config"
	"github.com/ragchatbot/server/internal/core"
	"github.com/ragchatbot/server/internal/llm"
	"github.com/ragchatbot/server/internal/search"
	"github.com/ragchatbot/server/internal/store"
	"github.com/ragchatbot/server/internal/vector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	ingestPath := flag.String("ingest", "", "Ingest the given text/markdown file into the knowledge base and exit")
	flag.Parse()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	ctx := context.Background()
	gemini, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	defer gemini.Close()

	if *ingestPath != "" {
		log.Println("Starting data ingestion process...")
		numIngested, err := dbStore.IngestDataFromFile(*ingestPath, func(text string) ([]float32, error) {
			return gemini.Embed(ctx, text)
		})
		if err != nil {
			log.Fatalf("Data ingestion failed: %v", err)
		}
		log.Printf("Data ingestion complete. Ingested %d chunks. Exiting.", numIngested)
		os.Exit(0)
	}

	index, err := vector.NewIndex(dbStore, gemini)
	if err != nil {
		log.Fatalf("Failed to initialize vector index: %v", err)
	}

	webSearcher := search.NewSerpAPIClient(cfg.SerpAPIKey)
	if cfg.SerpAPIKey == "" {
		log.Println("SERPAPI_API_KEY not set; web search fallback is disabled")
	}

	retriever := core.NewRetrievalEngine(index, webSearcher)
	answerer := core.NewAnswerGenerator(gemini, webSearcher)
	titler := core.NewTitleMaintainer(gemini, dbStore)
	chatService := core.NewChatService(dbStore, retriever, answerer, titler)

	apiHandler := api.NewAPIHandler(chatService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
