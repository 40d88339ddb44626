package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m04kA/SMC-SlotCalendar/internal/config"
	"github.com/m04kA/SMC-SlotCalendar/internal/domain"
	"github.com/m04kA/SMC-SlotCalendar/internal/infra/setup"
	slotsService "github.com/m04kA/SMC-SlotCalendar/internal/service/slots"
	"github.com/m04kA/SMC-SlotCalendar/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		fromFlag   = flag.String("from", "2024-12-20", "first date to populate (YYYY-MM-DD)")
		toFlag     = flag.String("to", "2025-02-10", "last date to populate (YYYY-MM-DD)")
		usersFlag  = flag.String("users", "Lorem", "comma separated user ids")
		seedFlag   = flag.Uint64("seed", 0, "random seed, 0 - current time")
		delayFlag  = flag.Duration("delay", time.Second, "pause between populated days")
	)
	flag.Parse()

	from, err := time.Parse(domain.DateFormat, *fromFlag)
	if err != nil {
		fmt.Printf("Invalid -from: %v\n", err)
		os.Exit(2)
	}
	to, err := time.Parse(domain.DateFormat, *toFlag)
	if err != nil {
		fmt.Printf("Invalid -to: %v\n", err)
		os.Exit(2)
	}

	users := parseUsers(*usersFlag)
	if len(users) == 0 {
		fmt.Println("At least one user id is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := setup.OpenRepository(ctx, cfg, nil, nil, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer closeRepo()

	locker, closeLocker, err := setup.OpenLocker(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize locker: %v", err)
	}
	defer closeLocker()

	seed := *seedFlag
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Info("Seeding %s..%s for users=%v (seed=%d)", *fromFlag, *toFlag, users, seed)

	svc := slotsService.NewService(repo, locker, nil, log)
	seeder := NewSeeder(svc, log, rand.New(rand.NewPCG(seed, seed)), users, *delayFlag)

	stats, err := seeder.Run(ctx, from, to)
	if err != nil {
		log.Error("Seeding stopped: %v", err)
	}
	log.Info("Seeding finished: days=%d added=%d rejected=%d", stats.Days, stats.Added, stats.Rejected)
}

func parseUsers(value string) []string {
	var users []string
	for _, user := range strings.Split(value, ",") {
		if user = strings.TrimSpace(user); user != "" {
			users = append(users, user)
		}
	}
	return users
}
