package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ethics-quiz-service/internal/app"
	"ethics-quiz-service/internal/config"
	"ethics-quiz-service/internal/domain"
	fileloader "ethics-quiz-service/internal/infra/file"
	"ethics-quiz-service/internal/infra/memory"
	pgloader "ethics-quiz-service/internal/infra/postgres"
	redisinfra "ethics-quiz-service/internal/infra/redis"
	transport "ethics-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if cfg.Questions.Path != "" {
		loader = fileloader.NewQuestionLoader(cfg.Questions.Path)
	}
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, questionTTL)
	}

	adminPassword := cfg.Admin.Password
	if adminPassword == "" {
		adminPassword = "Password123"
	}
	session := app.NewSession(app.SessionConfig{
		AdminPassword: adminPassword,
		AdminPolicy:   app.AdminPolicy(cfg.Admin.Policy),
	})

	setID := cfg.Questions.Set
	if setID == "" {
		setID = "moral-quiz"
	}
	service := app.NewQuizService(session, questionRepo, setID)

	if redisClient != nil {
		mirror := redisinfra.NewSnapshotMirror(redisClient, redisTTL)
		updates, cancelMirror := service.Subscribe()
		defer cancelMirror()
		go mirror.Watch(updates)
	}

	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/results", wsHandler.ServeResults)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting ethics quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides a minimal built-in content set used when
// neither a content file nor Postgres is configured.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"moral-quiz": {
			ID: "moral-quiz",
			Questions: []domain.Question{
				{
					ID:       1,
					Title:    "The Overcrowded Lifeboat",
					Question: "Would you throw cargo overboard to keep everyone afloat, even if the cargo is someone's livelihood?",
					Answers: domain.QuestionAnswers{
						Yes: domain.AnswerDetail{TheoryAlignment: []string{"Utilitarianism"}},
						No:  domain.AnswerDetail{TheoryAlignment: []string{"Deontological Ethics"}},
					},
				},
			},
			Theories: map[string]string{
				"Utilitarianism":       "The right action maximizes overall well-being.",
				"Deontological Ethics": "Actions are right or wrong in themselves, regardless of outcomes.",
			},
		},
	}
}
