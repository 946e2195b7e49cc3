package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"campus-board/internal/domain"
	"campus-board/internal/repository/sqlite"
)

// seed provisions school rows out-of-band. The API exposes no write
// path for schools, so this is how they come into existence.
//
//	seed -db data/campus.db "State University=student.state.edu" "Tech College=tech.edu"
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dbPath := flag.String("db", "data/campus.db", "path to the sqlite database")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: seed [-db path] \"Name=email.domain\" ...")
		os.Exit(2)
	}

	ctx := context.Background()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	schools := sqlite.NewSchoolRepository(db)
	if err := schools.Init(ctx); err != nil {
		logger.Fatalf("init schools: %v", err)
	}

	for _, arg := range flag.Args() {
		name, emailDomain, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		emailDomain = strings.TrimSpace(emailDomain)
		if !ok || name == "" || emailDomain == "" {
			logger.Fatalf("invalid school spec %q, want \"Name=email.domain\"", arg)
		}

		existing, err := schools.ListByEmailDomain(ctx, emailDomain)
		if err != nil {
			logger.Fatalf("check school domain %s: %v", emailDomain, err)
		}
		if len(existing) > 0 {
			logger.Warnf("domain %s already registered to school %d, adding anyway", emailDomain, existing[0].ID)
		}

		school := &domain.School{Name: name, EmailDomain: emailDomain}
		id, err := schools.Create(ctx, school)
		if err != nil {
			logger.Fatalf("create school %s: %v", name, err)
		}
		logger.Infof("school %d: %s (%s)", id, name, emailDomain)
	}
}
