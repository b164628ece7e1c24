// Command migrate manages the news bot schema: the subscribers table and
// the sent_links dedup table.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"newsbot/migrations"
)

var errUsage = errors.New("no command given")

type command struct {
	name string
	help string
	run  func(db *sql.DB, dir string) error
}

var commands = []command{
	{"up", "apply every pending migration", func(db *sql.DB, dir string) error { return goose.Up(db, dir) }},
	{"up-one", "apply the next pending migration", func(db *sql.DB, dir string) error { return goose.UpByOne(db, dir) }},
	{"down", "roll back the latest migration", func(db *sql.DB, dir string) error { return goose.Down(db, dir) }},
	{"status", "list migrations and whether they are applied", func(db *sql.DB, dir string) error { return goose.Status(db, dir) }},
	{"version", "print the current schema version", func(db *sql.DB, dir string) error { return goose.Version(db, dir) }},
	{"reset", "roll back every migration, dropping subscribers and sent links", func(db *sql.DB, dir string) error { return goose.Reset(db, dir) }},
}

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		}
		os.Exit(2)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	driver := fs.String("driver", envOrDefault("DATABASE_DRIVER", "sqlite"), "database driver: sqlite or postgres")
	dsn := fs.String("db", envOrDefault("DATABASE_PATH", "./data/bot.db"), "sqlite path or postgres DSN")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := lookup(name)
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}

	dialect, err := migrations.Dialect(*driver)
	if err != nil {
		return err
	}
	db, err := sql.Open(*driver, *dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", *driver, err)
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := cmd.run(db, "."); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: migrate [-driver sqlite|postgres] [-db dsn] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manages the subscribers and sent_links tables of the news bot.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
