// Package main provides operator utilities for the bulletin board.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bulletin/internal/bootstrap"
	"bulletin/internal/cache"
	"bulletin/internal/config"
	"bulletin/internal/middleware"
	"bulletin/internal/notifications"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin token [ttl]   - Issue a webhook token for the transport (default ttl 720h)")
	fmt.Println("  go run ./cmd/admin listen        - Print notifications published on Redis")
	fmt.Println("  go run ./cmd/admin members       - List approved members and their ban status")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	switch os.Args[1] {
	case "token":
		ttl := 720 * time.Hour
		if len(os.Args) > 2 {
			ttl, err = time.ParseDuration(os.Args[2])
			if err != nil {
				log.Fatalf("Invalid ttl %q: %v", os.Args[2], err)
			}
		}
		issueToken(cfg, ttl)
	case "listen":
		listen(cfg)
	case "members":
		listMembers(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func issueToken(cfg *config.Config, ttl time.Duration) {
	token, err := middleware.IssueTransportToken(cfg.WebhookSecret, ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}

func listen(cfg *config.Config) {
	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		log.Fatal("Redis is not reachable")
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := notifications.NewNotifier(rdb).StartPatternSubscriber(ctx, func(recipient int64, payload string) {
		fmt.Printf("%s  -> %d  %s\n", time.Now().Format(time.TimeOnly), recipient, payload)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	log.Println("Listening for notifications, Ctrl+C to stop")
	<-ctx.Done()
}

func listMembers(cfg *config.Config) {
	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to open board: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	members := rt.Moderation.Members()
	fmt.Printf("Approved members (%d):\n", len(members))
	for _, m := range members {
		status := ""
		if m.Banned {
			status = "  [banned until " + m.Member.BannedUntil.Format(time.DateTime) + "]"
		}
		fmt.Printf("  %-8s %-30s %-5s id=%d%s\n", m.Member.AccountCode, m.Member.FullName(), m.Member.ClassLabel, m.Member.UserID, status)
	}
}
