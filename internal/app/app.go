package app

import (
	"context"

	"github.com/govpub/govpub/backend/go-services/internal/config"
	"github.com/govpub/govpub/backend/go-services/internal/database"
	"github.com/govpub/govpub/backend/go-services/internal/edition/repository"
	"github.com/govpub/govpub/backend/go-services/internal/edition/service"
	"github.com/govpub/govpub/backend/go-services/internal/notify"
	"github.com/govpub/govpub/backend/go-services/internal/reminder"
	"github.com/govpub/govpub/backend/go-services/internal/searchindex"
	"github.com/govpub/govpub/backend/go-services/internal/users"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the services shared by the API server and the scheduler CLI.
type App struct {
	Editions  *service.Service
	Reminders *reminder.Service
	Scheduler *reminder.Scheduler
	Users     *users.Service

	Redis *redis.Client
	Mongo *mongo.Client
	MinIO *searchindex.MinIOStore
}

const mongoAttempts = 5

// Build connects the configured backends and assembles the services. Every
// backend is optional: without Mongo the repositories live in memory, without
// Redis notifications are logged, without MinIO search updates are dropped.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
			_ = client.Close()
		} else {
			a.Redis = client
			logger.Infof("Connected to Redis: %s", cfg.Redis.Addr())
		}
	}

	var (
		editionRepo  repository.Repository = repository.NewMemoryRepo()
		reminderRepo reminder.Repository   = reminder.NewMemoryRepo()
		userRepo     users.UserRepository  = users.NewMemoryUserRepository()
	)
	if cfg.MongoDB.URI != "" {
		client, db, err := database.Connect(ctx, cfg.MongoDB, mongoAttempts)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Mongo = client
		editionRepo = repository.NewMongoRepo(client, db)
		reminderRepo = reminder.NewMongoRepo(db)
		userRepo = users.NewMongoUserRepository(db.Collection("users"))
		logger.Infof("Using MongoDB database %q", cfg.MongoDB.Database)
	}

	var search service.SearchIndex = searchindex.Nop{}
	if cfg.MinIO.Endpoint != "" {
		store, err := searchindex.NewMinIOStore(searchindex.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Warnf("search index disabled: %v", err)
		} else {
			a.MinIO = store
			search = searchindex.NewObjectIndex(store, cfg.MinIO.Prefix)
		}
	}

	var notifier service.PublishingNotifier
	var mailer notify.Mailer = notify.LogMailer{}
	if a.Redis != nil {
		notifier = notify.NewPublishingQueue(notify.NewQueue(a.Redis, cfg.Queues.Publishing))
		mailer = notify.NewMailQueue(notify.NewQueue(a.Redis, cfg.Queues.Mail))
	}

	a.Users = users.NewService(userRepo)
	a.Editions = service.New(editionRepo, service.Deps{
		Search:            search,
		Notifier:          notifier,
		SideEffectTimeout: cfg.Scheduler.SideEffectTimeout,
	})
	a.Reminders = reminder.NewService(reminderRepo, nil, nil)
	a.Scheduler = reminder.NewScheduler(reminderRepo,
		notify.NewThrottled(mailer, cfg.Reminders.SendRate, cfg.Reminders.SendBurst),
		a.Editions, a.Users,
		reminder.WithConsultationPolicy(ConsultationPolicy(cfg.Reminders)),
	)
	return a, nil
}

// ConsultationPolicy applies configured overrides to the default policy.
func ConsultationPolicy(rc config.RemindersConfig) reminder.ConsultationPolicy {
	p := reminder.DefaultConsultationPolicy()
	if rc.ResponseWeeks > 0 {
		p.ResponseWeeks = rc.ResponseWeeks
	}
	if len(rc.OffsetWeeks) > 0 {
		p.OffsetWeeks = rc.OffsetWeeks
	}
	if rc.Window > 0 {
		p.Window = rc.Window
	}
	return p
}

// Ready reports the reachability of each configured backend.
func (a *App) Ready(ctx context.Context) map[string]bool {
	deps := map[string]bool{}
	if a.Redis != nil {
		deps["redis"] = a.Redis.Ping(ctx).Err() == nil
	}
	if a.Mongo != nil {
		deps["mongodb"] = a.Mongo.Ping(ctx, nil) == nil
	}
	if a.MinIO != nil {
		deps["minio"] = a.MinIO.Ping(ctx) == nil
	}
	return deps
}

func (a *App) Close(ctx context.Context) {
	if a.Mongo != nil {
		_ = a.Mongo.Disconnect(ctx)
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
