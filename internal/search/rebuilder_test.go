package search

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestRebuilderPicksUpNewPosts(t *testing.T) {
	db, idx := newIndexDB(t)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	r := NewRebuilder(idx, 10*time.Millisecond, logger)
	r.Start(context.Background())
	defer r.Shutdown()

	createPost(t, db, "bike for sale", "road bike, good condition", time.Now().UTC().Add(-time.Minute))

	require.Eventually(t, func() bool {
		_, total, err := idx.Search(context.Background(), "bike", 10, 0)
		return err == nil && total == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRebuilderDisabledByZeroInterval(t *testing.T) {
	_, idx := newIndexDB(t)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	r := NewRebuilder(idx, 0, logger)
	r.Start(context.Background())
	// Shutdown on a never-started loop must not hang
	r.Shutdown()
}

func TestRebuilderShutdownStopsLoop(t *testing.T) {
	_, idx := newIndexDB(t)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	r := NewRebuilder(idx, 5*time.Millisecond, logger)
	r.Start(context.Background())

	done := make(chan struct{})
	go func() {
		r.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rebuilder did not shut down")
	}
}
