package corpus

import (
	"bufio"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/nao1215/urldiff/internal/harness"
)

// StdinPath names standard input in a path list.
const StdinPath = "-"

// DefaultMaxFileSize bounds the size of a single corpus file.
const DefaultMaxFileSize = 16 << 20

var (
	// ErrEmptyCorpus is returned when the paths yield no inputs.
	ErrEmptyCorpus = errors.New("corpus is empty")

	// ErrFileTooLarge is returned for a corpus file above the size limit.
	ErrFileTooLarge = errors.New("corpus file too large")
)

// Mode selects how a file is split into inputs.
type Mode int

const (
	// ModeAuto reads .html and .htm files as HTML and other files whole.
	ModeAuto Mode = iota
	// ModeFile makes each file a single input, as in a fuzzing corpus.
	ModeFile
	// ModeLines makes each non-empty line an input.
	ModeLines
	// ModeHTML makes each URL attribute in an HTML document an input.
	ModeHTML
)

// Loader reads inputs from files, directories and standard input.
type Loader struct {
	mode        Mode
	dedupe      bool
	maxFileSize int64
	stdin       io.Reader
}

// Option configures a Loader.
type Option func(*Loader)

// WithMode sets how files are split into inputs.
func WithMode(m Mode) Option {
	return func(l *Loader) {
		l.mode = m
	}
}

// WithDedupe controls whether repeated inputs are dropped. It is on by default.
func WithDedupe(dedupe bool) Option {
	return func(l *Loader) {
		l.dedupe = dedupe
	}
}

// WithMaxFileSize sets the largest file the loader reads.
// Non-positive values are ignored.
func WithMaxFileSize(n int64) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxFileSize = n
		}
	}
}

// WithStdin sets the reader used for the "-" path.
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.stdin = r
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		mode:        ModeAuto,
		dedupe:      true,
		maxFileSize: DefaultMaxFileSize,
		stdin:       os.Stdin,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every path in order. Directories are walked recursively in
// lexical order, skipping hidden entries. Standard input ("-") is read
// line by line unless the mode says otherwise.
func (l *Loader) Load(paths ...string) ([]harness.Item, error) {
	items := make([]harness.Item, 0)
	seen := make(map[string]bool)
	add := func(label string, input []byte) {
		if l.dedupe {
			if seen[string(input)] {
				return
			}
			seen[string(input)] = true
		}
		items = append(items, harness.Item{Label: label, Input: input})
	}

	for _, path := range paths {
		if path == StdinPath {
			mode := l.mode
			if mode == ModeAuto {
				mode = ModeLines
			}
			if err := l.read("stdin", io.LimitReader(l.stdin, l.maxFileSize+1), mode, add); err != nil {
				return nil, err
			}
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(err, "stat corpus path")
		}
		if !info.IsDir() {
			if err := l.loadFile(path, info.Size(), add); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p != path && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return l.loadFile(p, fi.Size(), add)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", path)
		}
	}

	if len(items) == 0 {
		return nil, ErrEmptyCorpus
	}
	return items, nil
}

func (l *Loader) loadFile(path string, size int64, add func(string, []byte)) error {
	if size > l.maxFileSize {
		return errors.Wrapf(ErrFileTooLarge, "%s (%d bytes)", path, size)
	}

	mode := l.mode
	if mode == ModeAuto {
		mode = ModeFile
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			mode = ModeHTML
		}
	}

	f, err := os.Open(path) //nolint:gosec // corpus paths are user-provided
	if err != nil {
		return errors.Wrap(err, "open corpus file")
	}
	defer f.Close()

	return l.read(path, f, mode, add)
}

func (l *Loader) read(label string, r io.Reader, mode Mode, add func(string, []byte)) error {
	switch mode {
	case ModeLines:
		return readLines(label, r, l.maxFileSize, add)
	case ModeHTML:
		seeds, err := ExtractURLs(r)
		if err != nil {
			return errors.Wrapf(err, "parse %s", label)
		}
		for i, s := range seeds {
			add(label+"#"+strconv.Itoa(i+1)+" "+s.Element+"@"+s.Attr, []byte(s.URL))
		}
		return nil
	default:
		data, err := io.ReadAll(r)
		if err != nil {
			return errors.Wrapf(err, "read %s", label)
		}
		if int64(len(data)) > l.maxFileSize {
			return errors.Wrapf(ErrFileTooLarge, "%s", label)
		}
		add(label, data)
		return nil
	}
}

// readLines adds each non-empty line of r. A trailing carriage return is
// removed; other bytes, including leading spaces, are kept.
func readLines(label string, r io.Reader, maxLine int64, add func(string, []byte)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), int(maxLine))
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSuffix(sc.Bytes(), []byte("\r"))
		if len(line) == 0 {
			continue
		}
		add(label+":"+strconv.Itoa(n), bytes.Clone(line))
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "read %s", label)
	}
	return nil
}
