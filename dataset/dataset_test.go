package dataset

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/schema"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var fixtureCSV = map[string]string{
	inmates.TableOffenses: `,DCNumber,County,Race,Sex,OffenseDate,prisonterm,ProbationTerm,ParoleTerm,releasedateflag_descr,extra
0,A1,DADE,B,M,1990-06-01 00:00:00,100,,nan,valid release date,x
1,A2,LEON,W,F,1991-02-03,,36.5,,life sentence,y
`,
	inmates.TableCharges: `charge,year,DCNumber
ESCAPE,1971-01-01,5
ESCAPE,2016-01-01,
`,
	inmates.TableTattoos: `Location,text_token
ARM,"['rose', 'skull']"
CHEST,eagle flag
`,
	inmates.TableSummaries: `DCNumber,charge_tokens
A1,"[robbery, firearm]"
`,
}

func writeFixtures(t *testing.T, tables map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range tables {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(body), 0o644))
	}
	return dir
}

// ============================================================================
// PARSING
// ============================================================================

func TestParseTokens(t *testing.T) {
	assert.Equal(t, []string{"rose", "skull"}, parseTokens("['rose', 'skull']"))
	assert.Equal(t, []string{"rose", "skull"}, parseTokens("[rose, skull]"))
	assert.Equal(t, []string{"rose", "skull"}, parseTokens("  rose   skull "))
	assert.Nil(t, parseTokens("[]"))
	assert.Nil(t, parseTokens(""))
}

func TestParseFloat(t *testing.T) {
	for _, s := range []string{"", "NaN", "null", "<NA>", " none "} {
		v, err := parseFloat(s)
		require.NoError(t, err, s)
		assert.True(t, engine.IsNull(v), s)
	}
	v, err := parseFloat(" 12.5 ")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = parseFloat("twelve")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	want := time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"1990-06-01", "1990-06-01 00:00:00", "1990-06-01T00:00:00", "1990-06-01T00:00:00Z"} {
		got, err := parseDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}
	zero, err := parseDate("NaT")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseDate("June")
	assert.Error(t, err)
}

// ============================================================================
// CSV SOURCE
// ============================================================================

func TestParseCSVProjectsSchemaColumns(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(fixtureCSV[inmates.TableOffenses]), inmates.OffenseSchema)
	require.NoError(t, err)

	assert.Equal(t, inmates.OffenseSchema.Columns(), table.Columns)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "LEON", table.Value(1, inmates.ColCounty))
	assert.Equal(t, "", table.Value(1, "extra"))
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("DCNumber,County\nA1,DADE\n"), inmates.OffenseSchema)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(t.TempDir()).Table(context.Background(), inmates.OffenseSchema)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

// ============================================================================
// LOAD
// ============================================================================

func TestLoadFromCSV(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := NewCSVSource(writeFixtures(t, fixtureCSV))

	tables, err := Load(context.Background(), src, zap.New(core))
	require.NoError(t, err)

	require.Len(t, tables.Offenses, 2)
	first := tables.Offenses[0]
	assert.Equal(t, "A1", first.DCNumber)
	assert.Equal(t, 100.0, first.PrisonTerm)
	assert.True(t, engine.IsNull(first.ProbationTerm))
	assert.True(t, engine.IsNull(first.ParoleTerm))
	assert.Equal(t, "1990", first.OffenseYear())
	assert.True(t, engine.IsNull(tables.Offenses[1].PrisonTerm))
	assert.Equal(t, 36.5, tables.Offenses[1].ProbationTerm)

	require.Len(t, tables.Charges, 2)
	assert.Equal(t, 0.0, tables.Charges[1].Count)

	assert.Equal(t, []string{"rose", "skull"}, tables.Tattoos[0].Tokens)
	assert.Equal(t, []string{"eagle", "flag"}, tables.Tattoos[1].Tokens)
	assert.Equal(t, []string{"robbery", "firearm"}, tables.Summaries[0].ChargeTokens)

	assert.Empty(t, tables.Topics)
	assert.Empty(t, tables.Embedding)
	assert.Equal(t, 2, logs.FilterMessage("optional table missing").Len())
}

func TestLoadMissingRequiredTableFails(t *testing.T) {
	partial := map[string]string{inmates.TableOffenses: fixtureCSV[inmates.TableOffenses]}
	_, err := Load(context.Background(), NewCSVSource(writeFixtures(t, partial)), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Contains(t, err.Error(), inmates.TableCharges)
}

func TestLoadMalformedNumberReportsRow(t *testing.T) {
	bad := map[string]string{}
	for k, v := range fixtureCSV {
		bad[k] = v
	}
	bad[inmates.TableCharges] = "charge,year,DCNumber\nESCAPE,1971-01-01,many\n"

	_, err := Load(context.Background(), NewCSVSource(writeFixtures(t, bad)), nil)
	require.Error(t, err)
	var re *rowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, inmates.ColDCNumber, re.column)
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoadHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, NewMemorySource(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoLoadsOnce(t *testing.T) {
	src := &countingSource{Source: memoryFixture()}
	memo := NewMemo(src, nil)

	a, err := memo.Tables(context.Background())
	require.NoError(t, err)
	b, err := memo.Tables(context.Background())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, len(inmates.Schemas), src.calls)
	assert.Equal(t, 1, src.closes)
}

type countingSource struct {
	Source
	calls  int
	closes int
}

func (c *countingSource) Close() error {
	c.closes++
	return c.Source.Close()
}

func (c *countingSource) Table(ctx context.Context, sch schema.Config) (*Table, error) {
	c.calls++
	return c.Source.Table(ctx, sch)
}

func memoryFixture() *MemorySource {
	return NewMemorySource().
		Put(inmates.TableOffenses,
			[]string{"County", "DCNumber", "Race", "Sex", "OffenseDate", "prisonterm", "ProbationTerm", "ParoleTerm", "releasedateflag_descr"},
			[][]string{{"DADE", "A1", "B", "M", "1990-01-01", "5", "", "", "pending"}}).
		Put(inmates.TableCharges, []string{"charge", "year", "DCNumber"}, [][]string{{"ESCAPE", "1990-01-01", "3"}}).
		Put(inmates.TableTattoos, []string{"Location", "text_token"}, nil).
		Put(inmates.TableSummaries, []string{"DCNumber", "charge_tokens"}, nil).
		Put(inmates.TableTopics, []string{"topic", "label", "terms", "weight"}, [][]string{{"0", "gang", "crown star", "0.4"}}).
		Put(inmates.TableEmbedding, []string{"x", "y", "topic", "text"}, [][]string{{"1.5", "-2", "0", "crown"}})
}

func TestMemorySourceOptionalTables(t *testing.T) {
	tables, err := Load(context.Background(), memoryFixture(), nil)
	require.NoError(t, err)

	require.Len(t, tables.Topics, 1)
	assert.Equal(t, inmates.Topic{ID: 0, Label: "gang", Terms: []string{"crown", "star"}, Weight: 0.4}, tables.Topics[0])
	require.Len(t, tables.Embedding, 1)
	assert.Equal(t, inmates.EmbeddingPoint{X: 1.5, Y: -2, Topic: 0, Text: "crown"}, tables.Embedding[0])
}

// ============================================================================
// SQLITE SOURCE
// ============================================================================

func TestSQLiteSource(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE ts_charges (charge TEXT, year TEXT, DCNumber INTEGER, note TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO ts_charges VALUES ('ESCAPE', '1990-01-01', 7, 'a'), ('ROBBERY', '1991-01-01', NULL, 'b')`)
	require.NoError(t, err)

	src := NewSQLiteSourceDB(db)
	defer src.Close()

	table, err := src.Table(context.Background(), inmates.ChargeSchema)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ESCAPE", "1990-01-01", "7"}, {"ROBBERY", "1991-01-01", ""}}, table.Rows)

	charges, err := DecodeCharges(table)
	require.NoError(t, err)
	assert.Equal(t, 7.0, charges[0].Count)
	assert.Equal(t, 0.0, charges[1].Count)

	_, err = src.Table(context.Background(), inmates.OffenseSchema)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

// ============================================================================
// OPEN
// ============================================================================

func TestOpenDetectsKind(t *testing.T) {
	src, err := Open(Options{Kind: KindAuto, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	_, err = Open(Options{Kind: "xlsx"})
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = Open(Options{SQLitePath: filepath.Join(t.TempDir(), "missing.db")})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

// ============================================================================
// STALE WATCHER
// ============================================================================

func TestStaleWatcherReportsChanges(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*inotify).readEvents"),
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*Watcher).readEvents"),
	)

	dir := t.TempDir()
	core, logs := observer.New(zap.WarnLevel)
	changed := make(chan fsnotify.Event, 8)

	w, err := NewStaleWatcher(dir, zap.New(core), func(ev fsnotify.Event) { changed <- ev })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tattoos.csv"), []byte("Location,text_token\n"), 0o644))

	select {
	case ev := <-changed:
		assert.Equal(t, "tattoos.csv", filepath.Base(ev.Name))
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
	require.NoError(t, w.Stop())
	assert.GreaterOrEqual(t, logs.Len(), 1)
}

func TestStaleWatcherStopsOnContext(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*inotify).readEvents"),
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*Watcher).readEvents"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewStaleWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	require.NoError(t, w.Stop())
}
