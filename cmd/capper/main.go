package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartoncaps/capper/internal/chat"
	"github.com/cartoncaps/capper/internal/config"
	"github.com/cartoncaps/capper/internal/history"
	"github.com/cartoncaps/capper/internal/httpapi"
	"github.com/cartoncaps/capper/internal/knowledge"
	"github.com/cartoncaps/capper/internal/llm"
	"github.com/cartoncaps/capper/internal/observability"
	"github.com/cartoncaps/capper/internal/prompt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	ctx := context.Background()

	var (
		historyStore   history.Store
		knowledgeStore knowledge.Store
	)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		// One pool serves both stores.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		defer pool.Close()

		historyStore, err = history.NewPostgresStoreWithPool(ctx, pool)
		if err != nil {
			log.Fatalf("history store init failed: %v", err)
		}
		knowledgeStore, err = knowledge.NewPostgresStoreWithPool(ctx, pool)
		if err != nil {
			log.Fatalf("knowledge store init failed: %v", err)
		}
		log.Printf("store: postgres")
	} else {
		historyStore = history.NewInMemoryStore()
		mem := knowledge.NewInMemoryStore()
		seedDevData(mem)
		knowledgeStore = mem
		log.Printf("store: in-memory (DATABASE_URL not set), seeded dev data")
	}
	defer historyStore.Close()
	defer knowledgeStore.Close()

	gateway, err := llm.NewClient(llm.Config{
		Mode:    cfg.LLMMode,
		HTTPURL: cfg.LLMHTTPURL,
		APIKey:  cfg.LLMAPIKey,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}
	if cfg.LLMMaxRetries > 0 {
		gateway = llm.WithRetry(gateway, cfg.LLMMaxRetries, cfg.LLMRetryBase, cfg.LLMTimeout)
		log.Printf("llm retry enabled: %d attempts", cfg.LLMMaxRetries)
	}
	if strings.TrimSpace(cfg.LLMHTTPURL) == "" && strings.ToLower(cfg.LLMMode) != "http" {
		log.Printf("llm provider: mock (LLM_HTTP_URL not set)")
	} else {
		log.Printf("llm provider: http")
	}

	assembler := prompt.NewAssembler(cfg.HistoryWindow)
	chatService, err := chat.NewService(knowledgeStore, historyStore, gateway, assembler, metrics)
	if err != nil {
		log.Fatalf("chat service init failed: %v", err)
	}

	api := httpapi.New(cfg, chatService, knowledgeStore)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// seedDevData mirrors the sample catalog used for local development.
func seedDevData(s *knowledge.InMemoryStore) {
	ctx := context.Background()
	s.AddUser(knowledge.Profile{ID: 1, Name: "Jane Doe", Email: "jane@example.com", SchoolName: "Maplewood Elementary"})
	s.AddUser(knowledge.Profile{ID: 2, Name: "Raj Patel", Email: "raj@example.com"})

	products := []knowledge.Product{
		{Name: "Cereal Cap Classic", Description: "Breakfast themed bottle cap", Price: 3.50},
		{Name: "Vintage Soda Cap", Description: "Retro soda brand replica", Price: 2.25},
		{Name: "Glow Cap", Description: "Glow in the dark collector cap", Price: 4.75},
	}
	for _, p := range products {
		if _, err := s.CreateProduct(ctx, p); err != nil {
			log.Printf("seed product failed: %v", err)
		}
	}

	faqs := []knowledge.FAQ{
		{Question: "How do I refer a friend?", Answer: "Share your referral code from the app; your friend enters it at signup."},
		{Question: "When do I get my referral bonus?", Answer: "After your friend completes their first purchase."},
	}
	for _, f := range faqs {
		if _, err := s.CreateFAQ(ctx, f); err != nil {
			log.Printf("seed faq failed: %v", err)
		}
	}

	rules := []knowledge.Rule{
		{Description: "One referral bonus per referred friend."},
		{Description: "Referral bonuses are credited to the linked school fund."},
	}
	for _, r := range rules {
		if _, err := s.CreateRule(ctx, r); err != nil {
			log.Printf("seed rule failed: %v", err)
		}
	}
}
