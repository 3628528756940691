package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/urldiff/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *FindingsDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func success(host string, kind model.HostKind) model.Outcome {
	var b model.Builder
	return model.Success(b.Scheme("http").Host(host, kind).Path("/").MustBuild())
}

// hostSplit is a host-interpretation divergence between a and b.
func hostSplit() ([]byte, model.Verdict, []model.Result) {
	results := []model.Result{
		{Adapter: "a", Outcome: success("127.0.0.1", model.HostIPv4)},
		{Adapter: "b", Outcome: success("127.0.0.1", model.HostName)},
	}
	v := model.Verdict{
		Status:   model.StatusDiverge,
		Category: model.CategoryHostInterpretation,
		Fields:   []model.Field{model.FieldHost},
		Groups:   [][]string{{"a"}, {"b"}},
		Accepted: []string{"a", "b"},
	}
	return []byte("http://127.0.0.1/"), v, results
}

// classSplit is a classification divergence: a accepts, b and c reject.
func classSplit() ([]byte, model.Verdict, []model.Result) {
	results := []model.Result{
		{Adapter: "a", Outcome: success("x", model.HostName)},
		{Adapter: "b", Outcome: model.Rejected("invalid character")},
		{Adapter: "c", Outcome: model.Rejected("invalid URI")},
	}
	v := model.Verdict{
		Status:   model.StatusDiverge,
		Category: model.CategoryClassification,
		Fields:   []model.Field{},
		Groups:   [][]string{{"a"}},
		Accepted: []string{"a"},
		Rejected: []string{"b", "c"},
	}
	return []byte("http://x/ /"), v, results
}

// faultSplit is a fault divergence: a and b agree, c panics.
func faultSplit() ([]byte, model.Verdict, []model.Result) {
	results := []model.Result{
		{Adapter: "a", Outcome: success("y", model.HostName)},
		{Adapter: "b", Outcome: success("y", model.HostName)},
		{Adapter: "c", Outcome: model.Fatal(model.FatalPanic, "index out of range")},
	}
	v := model.Verdict{
		Status:   model.StatusDiverge,
		Category: model.CategoryFault,
		Fields:   []model.Field{},
		Groups:   [][]string{{"a", "b"}},
		Accepted: []string{"a", "b"},
		Faults:   []model.Fault{{Adapter: "c", Kind: model.FatalPanic, Reason: "index out of range"}},
	}
	return []byte("http://y/"), v, results
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		input, v, results := hostSplit()
		if _, err := db.Save(context.Background(), input, v, results); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		_ = db.Close()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		db, err = Open(dir, opts)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		f, err := db.Get(context.Background(), ID(input))
		if err != nil || f == nil {
			t.Fatalf("Get() = %v, %v; want stored finding", f, err)
		}
	})
}

func TestSaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	input, v, results := faultSplit()
	id, err := db.Save(ctx, input, v, results)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id != ID(input) || len(id) != 64 {
		t.Errorf("Save() id = %q, want SHA3-256 hex of input", id)
	}

	f, err := db.Get(ctx, id[:8])
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if f == nil {
		t.Fatal("Get() returned nil for stored finding")
	}

	if string(f.Input) != string(input) {
		t.Errorf("Input = %q, want %q", f.Input, input)
	}
	if f.Category != model.CategoryFault {
		t.Errorf("Category = %v, want %v", f.Category, model.CategoryFault)
	}
	if len(f.Fields) != 0 {
		t.Errorf("Fields = %v, want none", f.Fields)
	}
	if f.Signature() != v.Signature() {
		t.Errorf("Signature() = %q, want %q", f.Signature(), v.Signature())
	}
	if len(f.Faults) != 1 || f.Faults[0].Kind != model.FatalPanic || f.Faults[0].Adapter != "c" {
		t.Errorf("Faults = %+v", f.Faults)
	}
	if len(f.Groups) != 1 || len(f.Groups[0]) != 2 {
		t.Errorf("Groups = %v", f.Groups)
	}
	if len(f.Records) != len(results) {
		t.Fatalf("Records = %d, want %d", len(f.Records), len(results))
	}
	if f.Hits != 1 {
		t.Errorf("Hits = %d, want 1", f.Hits)
	}
	if f.FirstSeen.IsZero() || f.LastSeen.IsZero() {
		t.Errorf("timestamps not parsed: first=%v last=%v", f.FirstSeen, f.LastSeen)
	}
}

func TestSaveRepeatedInputBumpsHits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	input, v, results := hostSplit()
	for range 3 {
		if _, err := db.Save(ctx, input, v, results); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	all, err := db.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List() = %d findings, want 1", len(all))
	}
	if all[0].Hits != 3 {
		t.Errorf("Hits = %d, want 3", all[0].Hits)
	}
}

func TestSaveRejectsNonDivergence(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	for _, status := range []model.Status{model.StatusAgree, model.StatusHarnessError} {
		_, err := db.Save(context.Background(), []byte("x"), model.Verdict{Status: status}, nil)
		if !errors.Is(err, ErrNotDivergent) {
			t.Errorf("Save(%v) error = %v, want ErrNotDivergent", status, err)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	t.Run("invalid prefix", func(t *testing.T) {
		t.Parallel()

		for _, prefix := range []string{"", "xyz", "12 4"} {
			if _, err := db.Get(ctx, prefix); !errors.Is(err, ErrInvalidID) {
				t.Errorf("Get(%q) error = %v, want ErrInvalidID", prefix, err)
			}
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		f, err := db.Get(ctx, "abcdef")
		if err != nil || f != nil {
			t.Errorf("Get() = %v, %v; want nil, nil", f, err)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		_, v, results := hostSplit()

		// Among 17 inputs two IDs must share their first hex digit.
		byDigit := make(map[byte]int)
		var prefix string
		for i := range 17 {
			input := fmt.Appendf(nil, "http://h%d/", i)
			if _, err := db.Save(ctx, input, v, results); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			d := ID(input)[0]
			byDigit[d]++
			if byDigit[d] == 2 {
				prefix = string(d)
				break
			}
		}

		if _, err := db.Get(ctx, prefix); !errors.Is(err, ErrAmbiguousID) {
			t.Errorf("Get(%q) error = %v, want ErrAmbiguousID", prefix, err)
		}
	})

	t.Run("upper-case prefix", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		input, v, results := classSplit()
		id, err := db.Save(ctx, input, v, results)
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		f, err := db.Get(ctx, strings.ToUpper(id[:10]))
		if err != nil || f == nil || f.ID != id {
			t.Errorf("Get() = %v, %v; want %s", f, err, id)
		}
	})
}

func TestListAndCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	for _, split := range []func() ([]byte, model.Verdict, []model.Result){hostSplit, classSplit, faultSplit} {
		input, v, results := split()
		if _, err := db.Save(ctx, input, v, results); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	all, err := db.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() = %d findings, want 3", len(all))
	}

	host, err := db.List(ctx, Filter{Category: model.CategoryHostInterpretation})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(host) != 1 || host[0].Category != model.CategoryHostInterpretation {
		t.Errorf("List(host-interpretation) = %v", host)
	}
	if len(host) == 1 && (len(host[0].Fields) != 1 || host[0].Fields[0] != model.FieldHost) {
		t.Errorf("Fields = %v, want [host]", host[0].Fields)
	}

	limited, err := db.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit 2) = %d findings", len(limited))
	}

	counts, err := db.CountByCategory(ctx)
	if err != nil {
		t.Fatalf("CountByCategory() error = %v", err)
	}
	want := map[model.Category]int{
		model.CategoryHostInterpretation: 1,
		model.CategoryClassification:     1,
		model.CategoryFault:              1,
	}
	for c, n := range want {
		if counts[c] != n {
			t.Errorf("counts[%v] = %d, want %d", c, counts[c], n)
		}
	}
	if counts[model.CategoryValue] != 0 {
		t.Errorf("counts[value] = %d, want 0", counts[model.CategoryValue])
	}
}

func TestOverlap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	empty, err := db.Overlap(ctx)
	if err != nil {
		t.Fatalf("Overlap() error = %v", err)
	}
	if len(empty.Pairs) != 0 || len(empty.Adapters) != 0 {
		t.Errorf("Overlap() on empty database = %+v", empty)
	}

	for _, split := range []func() ([]byte, model.Verdict, []model.Result){hostSplit, classSplit, faultSplit} {
		input, v, results := split()
		if _, err := db.Save(ctx, input, v, results); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	o, err := db.Overlap(ctx)
	if err != nil {
		t.Fatalf("Overlap() error = %v", err)
	}

	if fmt.Sprint(o.Adapters) != "[a b c]" {
		t.Errorf("Adapters = %v, want [a b c]", o.Adapters)
	}

	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", 2},
		{"b", "a", 2},
		{"a", "c", 2},
		{"b", "c", 1},
		{"a", "a", 0},
	}
	for _, tt := range tests {
		if got := o.Count(tt.a, tt.b); got != tt.want {
			t.Errorf("Count(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	wantPairs := []PairCount{{"a", "b", 2}, {"a", "c", 2}, {"b", "c", 1}}
	if fmt.Sprint(o.Pairs) != fmt.Sprint(wantPairs) {
		t.Errorf("Pairs = %v, want %v", o.Pairs, wantPairs)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantZero bool
	}{
		{"2024-01-15 10:30:00", false},
		{"2024-01-15T10:30:00Z", false},
		{"2024-01-15T10:30:00+09:00", false},
		{"2024-01-15 10:30:00.123", false},
		{"not a timestamp", true},
		{"", true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.input); got.IsZero() != tt.wantZero {
			t.Errorf("parseTimestamp(%q) = %v, wantZero %v", tt.input, got, tt.wantZero)
		}
	}
}
