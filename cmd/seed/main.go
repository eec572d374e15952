// Command main fills the board with demo members, posts and reactions.
package main

import (
	"context"
	"flag"
	"log"

	"bulletin/internal/bootstrap"
	"bulletin/internal/config"
	"bulletin/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	members := flag.Int("members", defaults.Members, "Number of members to register and approve")
	posts := flag.Int("posts", defaults.Posts, "Number of posts to publish")
	comments := flag.Int("comments", defaults.MaxCommentsPerPost, "Maximum comments per post")
	reactions := flag.Bool("reactions", defaults.Reactions, "Add random likes and dislikes")
	randSeed := flag.Int64("seed", defaults.Seed, "Faker seed; 0 picks a random one")
	flag.Parse()

	log.Println("Bulletin seeder")
	log.Printf("Target: %d members, %d posts, up to %d comments each\n", *members, *posts, *comments)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	opts := defaults
	opts.Members = *members
	opts.Posts = *posts
	opts.MaxCommentsPerPost = *comments
	opts.Reactions = *reactions
	opts.Seed = *randSeed

	summary, err := seed.Demo(ctx, rt.Moderation, rt.Ledger, opts)
	if cerr := rt.Close(ctx); cerr != nil {
		log.Printf("Close failed: %v", cerr)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d members, %d posts, %d comments, %d reactions\n",
		summary.Members, summary.Posts, summary.Comments, summary.Reactions)
}
