// Command audit-report summarises the review audit trail.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

var (
	dsn   = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	since = flag.Duration("since", 7*24*time.Hour, "Only count reviews newer than this")
	land  = flag.String("land", "", "Print the full history of one land instead of the summary")
	top   = flag.Int("top", 10, "Number of most-failed fields to list")
)

type statusRow struct {
	Status string
	Count  int64
}

type fieldRow struct {
	Field string
	Count int64
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	if *land != "" {
		if err := printHistory(ctx, db, *land); err != nil {
			fatalf("history: %v", err)
		}
		return
	}

	from := time.Now().Add(-*since).UTC()
	statuses, err := countByStatus(ctx, db, from)
	if err != nil {
		fatalf("count by status: %v", err)
	}
	var total int64
	for _, s := range statuses {
		total += s.Count
	}
	fmt.Printf("Reviews since %s: %d\n", from.Format(time.RFC3339), total)
	for _, s := range statuses {
		fmt.Printf("  %-10s %6d\n", s.Status, s.Count)
	}

	fields, err := mostFailed(ctx, db, from, *top)
	if err != nil {
		fatalf("failed fields: %v", err)
	}
	if len(fields) > 0 {
		fmt.Println("\nMost failed fields:")
		for _, f := range fields {
			fmt.Printf("  %-30s %6d\n", f.Field, f.Count)
		}
	}
}

func countByStatus(ctx context.Context, db *sql.DB, from time.Time) ([]statusRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM backoffice.review_logs
		WHERE created_at >= $1
		GROUP BY status
		ORDER BY status`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statusRow
	for rows.Next() {
		var r statusRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func mostFailed(ctx context.Context, db *sql.DB, from time.Time, limit int) ([]fieldRow, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT f.field, COUNT(*)
		FROM backoffice.review_logs l, unnest(l.failed) AS f(field)
		WHERE l.created_at >= $1
		GROUP BY f.field
		ORDER BY COUNT(*) DESC, f.field
		LIMIT $2`, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []fieldRow
	for rows.Next() {
		var r fieldRow
		if err := rows.Scan(&r.Field, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func printHistory(ctx context.Context, db *sql.DB, landID string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT created_at, status, COALESCE(reviewer, ''), array_to_string(failed, ', ')
		FROM backoffice.review_logs
		WHERE land_id = $1
		ORDER BY created_at DESC`, landID)
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			at       time.Time
			status   string
			reviewer string
			failed   sql.NullString
		)
		if err := rows.Scan(&at, &status, &reviewer, &failed); err != nil {
			return err
		}
		line := fmt.Sprintf("%s  %-9s", at.Format("2006-01-02 15:04"), status)
		if reviewer != "" {
			line += "  by " + reviewer
		}
		if failed.Valid && strings.TrimSpace(failed.String) != "" {
			line += "  failed: " + failed.String
		}
		fmt.Println(line)
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("No reviews recorded for land %s\n", landID)
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
