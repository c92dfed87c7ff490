package main

import (
	"context"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard-api/storage/sqlite"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "./taskboard.db"
	}

	store, err := sqlite.Open(path)
	if err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}

	log.WithField("path", path).Info("storage init complete")
}
