package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"i18nextract/internal/message"
	"i18nextract/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.id
	return nil
}

type fakeDB struct {
	execs    []execCall
	known    map[string]bool
	present  map[string]bool
	rowErr   error
	failOn   string
	queryArg []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	if strings.Contains(sql, "INSERT INTO messages") {
		hash := args[0].(string)
		if f.known[hash] {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		f.known[hash] = true
	}
	if strings.Contains(sql, "INSERT INTO occurrences") {
		key := fmt.Sprintf("%v:%v", args[2], args[3])
		if f.present[key] {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		f.present[key] = true
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.queryArg = args
	return fakeRow{id: 7, err: f.rowErr}
}

func newFake() *fakeDB {
	return &fakeDB{known: make(map[string]bool), present: make(map[string]bool)}
}

func sample() message.Set {
	return message.Set{
		{Key: message.WithDefault("hello ${name}", "Hello"), Occurrences: []message.Occurrence{{File: "a.py", Line: 1}, {File: "b.py", Line: 2}}},
		{Key: message.NewKey("bye"), Occurrences: []message.Occurrence{{File: "a.py", Line: 3}}},
	}
}

func TestEnsureSchema(t *testing.T) {
	db := newFake()
	require.NoError(t, New(db).EnsureSchema(context.Background()))
	assert.Len(t, db.execs, len(schema))

	db = newFake()
	db.failOn = "occurrences"
	assert.Error(t, New(db).EnsureSchema(context.Background()))
}

func TestRecord(t *testing.T) {
	db := newFake()
	db.known[textutil.Hash("bye")] = true
	s := New(db)

	res, err := s.Record(context.Background(), Run{Domain: "zope", Output: "zope.pot", Version: "1.0"}, sample())
	require.NoError(t, err)
	assert.Equal(t, Result{RunID: 7, NewMessages: 1, Occurrences: 3}, res)
	assert.Equal(t, []any{"zope", "zope.pot", "1.0", 2}, db.queryArg)

	first := db.execs[0]
	assert.Equal(t, textutil.Hash("hello ${name}"), first.args[0])
	require.IsType(t, (*string)(nil), first.args[2])
	assert.Equal(t, "Hello", *first.args[2].(*string))

	var noDefault *string
	assert.Equal(t, noDefault, db.execs[3].args[2])
}

func TestRecordErrors(t *testing.T) {
	db := newFake()
	db.rowErr = errors.New("no connection")
	_, err := New(db).Record(context.Background(), Run{}, sample())
	assert.ErrorContains(t, err, "insert run")

	db = newFake()
	db.failOn = "occurrences"
	_, err = New(db).Record(context.Background(), Run{}, sample())
	assert.ErrorContains(t, err, "insert occurrence a.py:1")
}

func TestRecordCountsInsertedOccurrencesOnly(t *testing.T) {
	db := newFake()
	db.present["a.py:1"] = true

	res, err := New(db).Record(context.Background(), Run{Domain: "zope"}, sample())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Occurrences)
	assert.Equal(t, 2, res.NewMessages)
}
