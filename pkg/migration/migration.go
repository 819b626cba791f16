// Package migration runs versioned changes against the MongoDB database,
// mostly index builds.
//
// Migrations register themselves from init():
//
//	func init() {
//	    migration.Register("20260101000000_users_email_unique", UsersEmailUnique{})
//	}
//
// and are applied in name order by `kabadi migrate`. Each run is one batch;
// `kabadi migrate:rollback` reverses the most recent batch.
package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/kabadi/pkg/logger"
)

// Migration is applied by Up and reversed by Down.
type Migration interface {
	Up(ctx context.Context, db *mongo.Database) error
	Down(ctx context.Context, db *mongo.Database) error
}

// Record is one applied migration in the ledger.
type Record struct {
	Name  string    `bson:"_id"`
	Batch int       `bson:"batch"`
	RunAt time.Time `bson:"runAt"`
}

// Ledger remembers which migrations have been applied.
type Ledger interface {
	Applied(ctx context.Context) ([]Record, error)
	Add(ctx context.Context, rec Record) error
	Remove(ctx context.Context, name string) error
}

type registered struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []registered
)

// Register adds a migration to the global registry. Names are expected to be
// timestamp-prefixed so that they sort chronologically.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, registered{name: name, m: m})
}

func registeredMigrations() []registered {
	mu.Lock()
	defer mu.Unlock()
	return append([]registered(nil), registry...)
}

// Runner applies and tracks migrations.
type Runner struct {
	db         *mongo.Database
	ledger     Ledger
	migrations []registered
	out        io.Writer
	now        func() time.Time
}

// New returns a Runner over every registered migration, tracked in the
// schema_migrations collection of db.
func New(db *mongo.Database) *Runner {
	return newRunner(db, NewMongoLedger(db), registeredMigrations(), os.Stdout)
}

func newRunner(db *mongo.Database, ledger Ledger, ms []registered, out io.Writer) *Runner {
	ms = append([]registered(nil), ms...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].name < ms[j].name })
	return &Runner{db: db, ledger: ledger, migrations: ms, out: out, now: time.Now}
}

// Pending returns the names of migrations that have not been applied.
func (r *Runner) Pending(ctx context.Context) ([]string, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, reg := range r.migrations {
		if _, ok := applied[reg.name]; !ok {
			out = append(out, reg.name)
		}
	}
	return out, nil
}

// Run applies every pending migration as one batch. It stops at the first
// failure; migrations already applied in the batch stay recorded.
func (r *Runner) Run(ctx context.Context) error {
	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}

	batch := 1
	for _, rec := range applied {
		if rec.Batch >= batch {
			batch = rec.Batch + 1
		}
	}

	ran := 0
	for _, reg := range r.migrations {
		if _, ok := applied[reg.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "  migrating  %s\n", reg.name)
		if err := reg.m.Up(ctx, r.db); err != nil {
			return fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.ledger.Add(ctx, Record{Name: reg.name, Batch: batch, RunAt: r.now().UTC()}); err != nil {
			return fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		ran++
	}

	if ran == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}
	logger.Info("migration: done", "ran", ran, "batch", batch)
	return nil
}

// Rollback reverses the most recent batch, newest migration first.
func (r *Runner) Rollback(ctx context.Context) error {
	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}

	last := 0
	for _, rec := range applied {
		if rec.Batch > last {
			last = rec.Batch
		}
	}
	if last == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	byName := make(map[string]Migration, len(r.migrations))
	for _, reg := range r.migrations {
		byName[reg.name] = reg.m
	}

	var batch []string
	for name, rec := range applied {
		if rec.Batch == last {
			batch = append(batch, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(batch)))

	for _, name := range batch {
		m, ok := byName[name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", name)
		}
		fmt.Fprintf(r.out, "  rolling back  %s\n", name)
		if err := m.Down(ctx, r.db); err != nil {
			return fmt.Errorf("migration: %s down: %w", name, err)
		}
		if err := r.ledger.Remove(ctx, name); err != nil {
			return fmt.Errorf("migration: unrecord %s: %w", name, err)
		}
	}
	logger.Info("migration: rolled back", "batch", last, "count", len(batch))
	return nil
}

// Status prints every registered migration with its batch, or Pending.
func (r *Runner) Status(ctx context.Context) error {
	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("-", 80))
	for _, reg := range r.migrations {
		if rec, ok := applied[reg.name]; ok {
			fmt.Fprintf(r.out, "%-60s  %-8s  %d\n", reg.name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-60s  %-8s  -\n", reg.name, "Pending")
		}
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) (map[string]Record, error) {
	recs, err := r.ledger.Applied(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration: read ledger: %w", err)
	}
	out := make(map[string]Record, len(recs))
	for _, rec := range recs {
		out[rec.Name] = rec
	}
	return out, nil
}
