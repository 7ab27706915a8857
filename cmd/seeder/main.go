package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/rift-ladder/internal/database"
	"github.com/mauv0809/rift-ladder/internal/ladder"
	"github.com/mauv0809/rift-ladder/internal/match"
	"github.com/mauv0809/rift-ladder/internal/metrics"
	"github.com/mauv0809/rift-ladder/internal/notifier"
	"github.com/mauv0809/rift-ladder/internal/pubsub"
	"github.com/mauv0809/rift-ladder/internal/store"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"SEED_GUILD":   "seed-guild",
		"SEED_PLAYERS": "20",
		"SEED_MATCHES": "200",
	}
	for _, key := range []string{"DB_NAME", "TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN", "SEED_GUILD", "SEED_PLAYERS", "SEED_MATCHES"} {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		}
	}
	if config["DB_NAME"] == "" && config["TURSO_PRIMARY_URL"] == "" {
		log.Fatal("Error: set DB_NAME or TURSO_PRIMARY_URL")
	}
	return config
}

func mustInt(cfg map[string]string, key string) int {
	n, err := strconv.Atoi(cfg[key])
	if err != nil || n <= 0 {
		log.Fatalf("Error: %s must be a positive number, got %q", key, cfg[key])
	}
	return n
}

// Plays simulated matches through the ladder so a guild has a spread of
// ratings to test balancing against. Each player has a hidden skill; the
// team with more total skill usually wins.
func main() {
	log.Info("Starting ladder seeder...")
	cfg := loadConfig()
	guildID := cfg["SEED_GUILD"]
	numPlayers := mustInt(cfg, "SEED_PLAYERS")
	numMatches := mustInt(cfg, "SEED_MATCHES")

	db, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer db.Close()

	svc := ladder.NewService(store.New(db), store.DefaultGuildSettings(), metrics.NewMock(), pubsub.NewNoop(), notifier.NewNoop())
	ctx := context.Background()

	settings, err := svc.GetGuildSettings(ctx, guildID)
	if err != nil {
		log.Fatalf("Failed to load guild settings: %s", err)
	}
	perMatch := min(settings.QueueCapacity(), numPlayers-numPlayers%2)
	if perMatch < 2 {
		log.Fatal("Error: need at least 2 players")
	}

	players := make([]string, numPlayers)
	skill := make(map[string]int, numPlayers)
	for i := range players {
		players[i] = fmt.Sprintf("seed-player-%02d", i+1)
		skill[players[i]] = rand.Intn(100)
	}

	log.Info("Preparing to play seeded matches...", "guild", guildID, "players", numPlayers, "matches", numMatches, "per_match", perMatch)
	startTime := time.Now()

	for i := 0; i < numMatches; i++ {
		queue, err := svc.OpenQueue(ctx, guildID, fmt.Sprintf("seed-channel-%d", i), perMatch)
		if err != nil {
			log.Fatalf("Failed to open queue: %s", err)
		}

		var formed *match.Match
		for _, idx := range rand.Perm(numPlayers)[:perMatch] {
			role := match.Roles[rand.Intn(len(match.Roles))]
			res, err := svc.JoinQueue(ctx, queue.ID, players[idx], string(role), string(match.RoleFill))
			if err != nil {
				log.Fatalf("Failed to join queue: %s", err)
			}
			formed = res.Match
		}

		totals := map[match.Team]int{}
		for id, a := range formed.Assignments {
			totals[a.Team] += skill[id] + rand.Intn(40)
		}
		outcome := match.ChoiceDraw
		switch {
		case totals[match.TeamBlue] > totals[match.TeamRed]:
			outcome = match.ChoiceBlue
		case totals[match.TeamRed] > totals[match.TeamBlue]:
			outcome = match.ChoiceRed
		}

		for id := range formed.Assignments {
			if _, err := svc.CastVote(ctx, formed.ID, id, string(outcome)); err != nil {
				log.Fatalf("Failed to cast vote: %s", err)
			}
		}
		if _, err := svc.ConfirmMatch(ctx, formed.ID); err != nil {
			log.Fatalf("Failed to confirm match: %s", err)
		}

		if (i+1)%50 == 0 || (i+1) == numMatches {
			log.Info("Played batch", "completed", i+1, "total", numMatches)
		}
	}

	duration := time.Since(startTime)
	log.Info("Successfully seeded the ladder.", "duration", duration)
}
