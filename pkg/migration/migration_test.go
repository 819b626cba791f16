package migration

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type memLedger struct {
	recs map[string]Record
}

func (l *memLedger) Applied(context.Context) ([]Record, error) {
	out := make([]Record, 0, len(l.recs))
	for _, r := range l.recs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (l *memLedger) Add(_ context.Context, rec Record) error {
	l.recs[rec.Name] = rec
	return nil
}

func (l *memLedger) Remove(_ context.Context, name string) error {
	delete(l.recs, name)
	return nil
}

type step struct {
	name string
	log  *[]string
	fail bool
}

func (s step) Up(context.Context, *mongo.Database) error {
	if s.fail {
		return errors.New("boom")
	}
	*s.log = append(*s.log, "up "+s.name)
	return nil
}

func (s step) Down(context.Context, *mongo.Database) error {
	*s.log = append(*s.log, "down "+s.name)
	return nil
}

func setup(names ...string) (*Runner, *memLedger, *[]string) {
	var log []string
	ms := make([]registered, 0, len(names))
	for _, n := range names {
		ms = append(ms, registered{name: n, m: step{name: n, log: &log}})
	}
	ledger := &memLedger{recs: map[string]Record{}}
	return newRunner(nil, ledger, ms, &bytes.Buffer{}), ledger, &log
}

func TestRunner_RunsPendingInNameOrder(t *testing.T) {
	r, ledger, log := setup("002_b", "001_a")

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"up 001_a", "up 002_b"}, *log)
	assert.Equal(t, 1, ledger.recs["001_a"].Batch)
	assert.Equal(t, 1, ledger.recs["002_b"].Batch)

	pending, err := r.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, r.Run(context.Background()))
	assert.Len(t, *log, 2)
}

func TestRunner_RollbackReversesLastBatchOnly(t *testing.T) {
	r, ledger, log := setup("001_a")
	require.NoError(t, r.Run(context.Background()))

	r.migrations = append(r.migrations,
		registered{name: "002_b", m: step{name: "002_b", log: log}},
		registered{name: "003_c", m: step{name: "003_c", log: log}},
	)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, ledger.recs["003_c"].Batch)

	*log = nil
	require.NoError(t, r.Rollback(context.Background()))
	assert.Equal(t, []string{"down 003_c", "down 002_b"}, *log)
	assert.Contains(t, ledger.recs, "001_a")
	assert.NotContains(t, ledger.recs, "002_b")

	pending, err := r.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"002_b", "003_c"}, pending)
}

func TestRunner_StopsAtFailure(t *testing.T) {
	var log []string
	ledger := &memLedger{recs: map[string]Record{}}
	r := newRunner(nil, ledger, []registered{
		{name: "001_a", m: step{name: "001_a", log: &log}},
		{name: "002_b", m: step{name: "002_b", log: &log, fail: true}},
	}, &bytes.Buffer{})

	err := r.Run(context.Background())
	assert.ErrorContains(t, err, "002_b up")
	assert.Contains(t, ledger.recs, "001_a")
	assert.NotContains(t, ledger.recs, "002_b")
}

func TestRunner_Status(t *testing.T) {
	r, _, _ := setup("001_a")
	out := &bytes.Buffer{}
	r.out = out

	require.NoError(t, r.Status(context.Background()))
	assert.Contains(t, out.String(), "Pending")

	require.NoError(t, r.Run(context.Background()))
	out.Reset()
	require.NoError(t, r.Status(context.Background()))
	assert.Contains(t, out.String(), "Ran")
}

func TestRunner_RollbackWithNothingApplied(t *testing.T) {
	r, _, log := setup("001_a")
	require.NoError(t, r.Rollback(context.Background()))
	assert.Empty(t, *log)
}
