package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/app"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/internal/config"
	"github.com/govpub/govpub/backend/go-services/internal/models"
	"github.com/govpub/govpub/backend/go-services/internal/tokens"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
)

const (
	taskScheduledPublications = "scheduled-publications"
	taskDeadlineReminders     = "deadline-reminders"
)

func main() {
	task := flag.String("task", taskScheduledPublications, "task to run: scheduled-publications | deadline-reminders")
	every := flag.Duration("every", 0, "repeat the task at this interval; 0 runs it once")
	remote := flag.String("remote", "", "base URL of the API; when set the task is triggered over HTTP with a service token")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var run func(context.Context) (interface{}, error)
	if *remote != "" {
		run, err = remoteRunner(cfg, *remote, *task)
	} else {
		run, err = localRunner(ctx, cfg, *task)
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}

	if *every <= 0 {
		if err := runOnce(ctx, *task, run); err != nil {
			os.Exit(1)
		}
		return
	}
	ticker := time.NewTicker(*every)
	defer ticker.Stop()
	for {
		_ = runOnce(ctx, *task, run)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runOnce(ctx context.Context, task string, run func(context.Context) (interface{}, error)) error {
	report, err := run(ctx)
	if err != nil {
		logger.Errorf("task %s failed: %v", task, err)
		return err
	}
	out, _ := json.Marshal(report)
	logger.Infof("task %s finished: %s", task, out)
	return nil
}

func localRunner(ctx context.Context, cfg *config.Config, task string) (func(context.Context) (interface{}, error), error) {
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise services: %w", err)
	}
	switch task {
	case taskScheduledPublications:
		return func(ctx context.Context) (interface{}, error) { return a.Editions.RunScheduledPublications(ctx) }, nil
	case taskDeadlineReminders:
		return func(ctx context.Context) (interface{}, error) { return a.Scheduler.RunDeadlineReminders(ctx) }, nil
	}
	return nil, fmt.Errorf("unknown task %q", task)
}

// remoteRunner posts to the API's task endpoint as the system actor.
func remoteRunner(cfg *config.Config, base, task string) (func(context.Context) (interface{}, error), error) {
	if task != taskScheduledPublications && task != taskDeadlineReminders {
		return nil, fmt.Errorf("unknown task %q", task)
	}
	url := strings.TrimRight(base, "/") + "/api/v1/tasks/" + task
	system := &models.User{Sub: auth.System.ID, Name: "scheduler", Roles: auth.System.Roles}
	client := &http.Client{Timeout: 5 * time.Minute}

	return func(ctx context.Context) (interface{}, error) {
		token, err := tokens.GenerateAccessToken(cfg, system, cfg.JWT.AccessTokenTTL)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
		}
		return json.RawMessage(body), nil
	}, nil
}
