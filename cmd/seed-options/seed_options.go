package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftnight/draftnight/internal/config"
)

// OptionSet mirrors the JSON snapshot: a named list of curated options to
// load into an existing draft by GUID.
type OptionSet struct {
	DraftGUID string   `json:"draft_guid"`
	Options   []string `json:"options"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: seed-options <options.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var sets []OptionSet
	if err := json.Unmarshal(data, &sets); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := config.NewDBConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var (
		inserted int
		skipped  int
		errs     int
	)

	for _, set := range sets {
		for _, payload := range set.Options {
			cmdTag, err := pool.Exec(context.Background(), `
                INSERT INTO curated_options (draft_id, payload)
                SELECT d.id, $2
                FROM drafts d
                WHERE d.guid = $1
                  AND NOT EXISTS (
                    SELECT 1 FROM curated_options co
                    WHERE co.draft_id = d.id AND co.payload = $2
                  )
            `, set.DraftGUID, payload)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error inserting option %q for draft %s: %v\n", payload, set.DraftGUID, err)
				errs++
				continue
			}
			if cmdTag.RowsAffected() == 1 {
				inserted++
			} else {
				skipped++
			}
		}
	}

	fmt.Printf(
		"Options seed complete: %d inserted, %d skipped, %d errors\n",
		inserted, skipped, errs,
	)
}
