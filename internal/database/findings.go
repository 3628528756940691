package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "urldiff.db"

var (
	// ErrNotDivergent is returned when saving a verdict that is not a divergence.
	ErrNotDivergent = errors.New("verdict is not a divergence")

	// ErrAmbiguousID is returned when an ID prefix matches more than one finding.
	ErrAmbiguousID = errors.New("ambiguous finding id")

	// ErrInvalidID is returned when an ID prefix is not lowercase hex.
	ErrInvalidID = errors.New("finding id must be hexadecimal")
)

// FindingsDB stores divergent inputs in SQLite. Each input is stored once,
// keyed by its SHA3-256 digest; seeing it again bumps its hit count.
type FindingsDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures FindingsDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, which lets findings be read
	// while a batch run is still writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the findings database in dbDir.
func Open(dbDir string, opts Options) (*FindingsDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, errors.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, errors.Wrap(err, "check database path")
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	fdb := &FindingsDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enable WAL mode")
		}
	}

	if err := fdb.createTables(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create tables")
	}
	return fdb, nil
}

// Path returns the database file path.
func (fdb *FindingsDB) Path() string {
	return fdb.dbPath
}

// Close closes the database connection.
func (fdb *FindingsDB) Close() error {
	return fdb.db.Close()
}

func (fdb *FindingsDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS findings (
		id TEXT PRIMARY KEY,
		input BLOB,
		category TEXT NOT NULL,
		fields TEXT NOT NULL,
		groups_json TEXT NOT NULL,
		accepted_json TEXT NOT NULL,
		rejected_json TEXT NOT NULL,
		faults_json TEXT NOT NULL,
		records_json TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		hits INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_findings_category ON findings(category);
	CREATE INDEX IF NOT EXISTS idx_findings_last_seen ON findings(last_seen);
	`
	_, err := fdb.db.ExecContext(context.Background(), schema)
	return err
}

// Finding is a stored divergent input.
type Finding struct {
	// ID is the lowercase hex SHA3-256 digest of Input.
	ID string

	Input    []byte
	Category model.Category
	Fields   []model.Field

	// Groups partitions the successful adapters into agreeing classes.
	Groups [][]string

	Accepted []string
	Rejected []string
	Faults   []model.Fault

	// Records holds one Structured record per adapter.
	Records []json.RawMessage

	FirstSeen time.Time
	LastSeen  time.Time
	Hits      int
}

// Signature returns the verdict signature the finding was stored under.
func (f *Finding) Signature() string {
	return model.Verdict{Status: model.StatusDiverge, Category: f.Category, Fields: f.Fields}.Signature()
}

// ID returns the finding ID of input.
func ID(input []byte) string {
	sum := sha3.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// faultRow is the stored form of model.Fault. FatalKind only marshals.
type faultRow struct {
	Adapter string `json:"adapter"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
}

// Save stores a divergent run and returns its ID. Saving an input that is
// already stored refreshes its verdict and records and increments its hits.
func (fdb *FindingsDB) Save(ctx context.Context, input []byte, v model.Verdict, results []model.Result) (string, error) {
	if !v.Diverge() {
		return "", ErrNotDivergent
	}

	faults := make([]faultRow, len(v.Faults))
	for i, f := range v.Faults {
		faults[i] = faultRow{Adapter: f.Adapter, Kind: f.Kind.String(), Reason: f.Reason}
	}
	records := make([]json.RawMessage, len(results))
	for i, r := range results {
		records[i] = codec.EncodeStructured(r)
	}

	groupsJSON, err := marshal(nonNil(v.Groups))
	if err != nil {
		return "", err
	}
	acceptedJSON, err := marshal(nonNil(v.Accepted))
	if err != nil {
		return "", err
	}
	rejectedJSON, err := marshal(nonNil(v.Rejected))
	if err != nil {
		return "", err
	}
	faultsJSON, err := marshal(faults)
	if err != nil {
		return "", err
	}
	recordsJSON, err := marshal(records)
	if err != nil {
		return "", err
	}

	query := `
	INSERT INTO findings (id, input, category, fields, groups_json, accepted_json, rejected_json, faults_json, records_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		category = excluded.category,
		fields = excluded.fields,
		groups_json = excluded.groups_json,
		accepted_json = excluded.accepted_json,
		rejected_json = excluded.rejected_json,
		faults_json = excluded.faults_json,
		records_json = excluded.records_json,
		last_seen = CURRENT_TIMESTAMP,
		hits = findings.hits + 1
	`

	id := ID(input)
	_, err = fdb.db.ExecContext(ctx, query,
		id,
		input,
		v.Category.String(),
		joinFields(v.Fields),
		groupsJSON,
		acceptedJSON,
		rejectedJSON,
		faultsJSON,
		recordsJSON,
	)
	if err != nil {
		return "", errors.Wrap(err, "save finding")
	}
	return id, nil
}

const findingColumns = `id, input, category, fields, groups_json, accepted_json, rejected_json,
	faults_json, records_json, first_seen, last_seen, hits`

// Get returns the finding whose ID starts with prefix, or nil if there is none.
func (fdb *FindingsDB) Get(ctx context.Context, prefix string) (*Finding, error) {
	prefix = strings.ToLower(prefix)
	if prefix == "" || strings.Trim(prefix, "0123456789abcdef") != "" {
		return nil, errors.Wrapf(ErrInvalidID, "%q", prefix)
	}

	query := `SELECT ` + findingColumns + ` FROM findings WHERE id LIKE ? ORDER BY id LIMIT 2`
	rows, err := fdb.db.QueryContext(ctx, query, prefix+"%")
	if err != nil {
		return nil, errors.Wrap(err, "get finding")
	}
	defer rows.Close()

	found, err := scanFindings(rows)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, errors.Wrapf(ErrAmbiguousID, "%q", prefix)
	}
}

// Filter narrows List.
type Filter struct {
	// Category keeps only findings of this category. CategoryNone keeps all.
	Category model.Category

	// Limit caps the number of findings returned. Zero means no limit.
	Limit int
}

// List returns stored findings, most recently seen first.
func (fdb *FindingsDB) List(ctx context.Context, filter Filter) ([]*Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE 1=1`
	args := make([]any, 0, 2)

	if filter.Category != model.CategoryNone {
		query += " AND category = ?"
		args = append(args, filter.Category.String())
	}
	query += " ORDER BY last_seen DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := fdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list findings")
	}
	defer rows.Close()
	return scanFindings(rows)
}

// CountByCategory returns the number of stored findings per category.
func (fdb *FindingsDB) CountByCategory(ctx context.Context) (map[model.Category]int, error) {
	rows, err := fdb.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM findings GROUP BY category`)
	if err != nil {
		return nil, errors.Wrap(err, "count findings")
	}
	defer rows.Close()

	counts := make(map[model.Category]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, errors.Wrap(err, "scan count")
		}
		c, ok := model.ParseCategory(name)
		if !ok {
			return nil, errors.Errorf("unknown category %q in database", name)
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// PairCount is the number of findings on which two adapters disagree.
type PairCount struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Count int    `json:"count"`
}

// Overlap is the adapter-pair disagreement matrix over all findings.
type Overlap struct {
	// Adapters lists every adapter seen in a finding, sorted.
	Adapters []string `json:"adapters"`

	// Pairs holds every pair with a non-zero count, largest count first.
	Pairs []PairCount `json:"pairs"`

	counts map[[2]string]int
}

// Count returns the number of findings on which a and b disagree.
func (o *Overlap) Count(a, b string) int {
	if a > b {
		a, b = b, a
	}
	return o.counts[[2]string{a, b}]
}

// Overlap computes how many findings split each pair of adapters. Two
// adapters are split when their outcomes fall in different classes: the
// agreeing groups of successful adapters, the rejecting adapters, and each
// failing adapter on its own.
func (fdb *FindingsDB) Overlap(ctx context.Context) (*Overlap, error) {
	findings, err := fdb.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	o := &Overlap{counts: make(map[[2]string]int)}
	seen := make(map[string]bool)
	for _, f := range findings {
		classes := f.classes()
		for i, ci := range classes {
			for _, a := range ci {
				seen[a] = true
				for _, cj := range classes[i+1:] {
					for _, b := range cj {
						key := [2]string{a, b}
						if a > b {
							key = [2]string{b, a}
						}
						o.counts[key]++
					}
				}
			}
		}
	}

	for a := range seen {
		o.Adapters = append(o.Adapters, a)
	}
	sort.Strings(o.Adapters)
	for k, n := range o.counts {
		o.Pairs = append(o.Pairs, PairCount{A: k[0], B: k[1], Count: n})
	}
	sort.Slice(o.Pairs, func(i, j int) bool {
		pi, pj := o.Pairs[i], o.Pairs[j]
		if pi.Count != pj.Count {
			return pi.Count > pj.Count
		}
		if pi.A != pj.A {
			return pi.A < pj.A
		}
		return pi.B < pj.B
	})
	return o, nil
}

// Adapters returns the names of the adapters that took part, sorted.
func (f *Finding) Adapters() []string {
	seen := make(map[string]bool)
	for _, c := range append(f.classes(), f.Accepted) {
		for _, name := range c {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Finding) classes() [][]string {
	classes := make([][]string, 0, len(f.Groups)+1+len(f.Faults))
	classes = append(classes, f.Groups...)
	if len(f.Rejected) > 0 {
		classes = append(classes, f.Rejected)
	}
	for _, fault := range f.Faults {
		classes = append(classes, []string{fault.Adapter})
	}
	return classes
}

func scanFindings(rows *sql.Rows) ([]*Finding, error) {
	var findings []*Finding
	for rows.Next() {
		var (
			f                                  Finding
			category, fields                   string
			groups, accepted, rejected, faults string
			records                            string
			firstSeen, lastSeen                string
		)
		err := rows.Scan(
			&f.ID,
			&f.Input,
			&category,
			&fields,
			&groups,
			&accepted,
			&rejected,
			&faults,
			&records,
			&firstSeen,
			&lastSeen,
			&f.Hits,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan finding")
		}

		c, ok := model.ParseCategory(category)
		if !ok {
			return nil, errors.Errorf("finding %s: unknown category %q", f.ID, category)
		}
		f.Category = c
		if f.Fields, err = splitFields(fields); err != nil {
			return nil, errors.Wrapf(err, "finding %s", f.ID)
		}

		var rowFaults []faultRow
		for _, col := range []struct {
			data string
			dst  any
		}{
			{groups, &f.Groups},
			{accepted, &f.Accepted},
			{rejected, &f.Rejected},
			{faults, &rowFaults},
			{records, &f.Records},
		} {
			if err := json.Unmarshal([]byte(col.data), col.dst); err != nil {
				return nil, errors.Wrapf(err, "finding %s: parse column", f.ID)
			}
		}
		for _, r := range rowFaults {
			kind, ok := model.ParseFatalKind(r.Kind)
			if !ok {
				return nil, errors.Errorf("finding %s: unknown fault kind %q", f.ID, r.Kind)
			}
			f.Faults = append(f.Faults, model.Fault{Adapter: r.Adapter, Kind: kind, Reason: r.Reason})
		}

		f.FirstSeen = parseTimestamp(firstSeen)
		f.LastSeen = parseTimestamp(lastSeen)
		findings = append(findings, &f)
	}
	return findings, rows.Err()
}

func joinFields(fields []model.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	return strings.Join(names, ",")
}

func splitFields(s string) ([]model.Field, error) {
	fields := []model.Field{}
	if s == "" {
		return fields, nil
	}
	for _, name := range strings.Split(s, ",") {
		f, ok := model.ParseField(name)
		if !ok {
			return nil, errors.Errorf("unknown field %q", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "serialize finding")
	}
	return string(data), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
