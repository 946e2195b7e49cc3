package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"campus-board/internal/repository/sqlite"
	"campus-board/internal/search"
)

// reindex rebuilds the full-text post index from the relational store.
// Run it from cron or after bulk imports when the in-server rebuild
// loop is disabled.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dbPath := flag.String("db", "data/campus.db", "path to the sqlite database")
	flag.Parse()

	ctx := context.Background()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	index := search.NewIndex(db)
	if err := index.Init(ctx); err != nil {
		logger.Fatalf("init index: %v", err)
	}

	count, err := index.Rebuild(ctx)
	if err != nil {
		logger.Fatalf("rebuild index: %v", err)
	}
	logger.Infof("index rebuilt, %d posts", count)
}
