// Command migrate manages the payment database schema through goose. The
// connection is assembled from the same DB_* environment variables the server
// reads, so one shell configuration drives both binaries.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var dir = flag.String("dir", "migrations", "directory holding the migration files")

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	db, err := goose.OpenDBWithDriver("pgx", dsnFromEnv())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	command := flag.Arg(0)
	if err := goose.Run(command, db, *dir, flag.Args()[1:]...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
}

func dsnFromEnv() string {
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		get("DB_HOST", "localhost"),
		get("DB_PORT", "5432"),
		get("DB_USER", "postgres"),
		get("DB_PASSWORD", "postgres"),
		get("DB_NAME", "pos_payments"),
		get("DB_SSL_MODE", "disable"))
}

func printUsage() {
	fmt.Fprint(flag.CommandLine.Output(), `migrate applies goose migrations to the payment database.

Usage:
    migrate [-dir DIR] COMMAND [ARGS]

COMMAND is any goose command: up, down, status, version, up-to VERSION,
down-to VERSION, redo, reset, create NAME sql.

The connection is read from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
and DB_SSL_MODE, matching the server's configuration.
`)
}
