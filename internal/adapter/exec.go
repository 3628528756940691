package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/nao1215/urldiff/internal/codec"
	"github.com/nao1215/urldiff/internal/model"
)

const (
	// maxStderr bounds how much of a target's stderr is kept as a reason.
	maxStderr = 512

	// waitDelay bounds how long a killed target may hold its output pipes.
	waitDelay = time.Second
)

// ExecSpec describes an external parser harness: a program that reads one
// input on stdin and prints a Plain or Structured record on stdout.
type ExecSpec struct {
	// Name identifies the adapter in verdicts and records.
	Name string

	// Executable is the program to run.
	Executable string

	// Args are passed to the program.
	Args []string

	// Env entries ("KEY=value") are appended to the current environment.
	Env []string

	// Format is the record format the program prints.
	Format codec.Encoding

	// Charset names the IANA character set of the program's output.
	// Empty means UTF-8.
	Charset string

	// FilterDefaultPort moves a printed port to the inferred port when the
	// input had no port token, for harnesses that print the port the library
	// would connect to.
	FilterDefaultPort bool

	// ExitIsolation makes a non-zero exit status a Fatal isolation failure
	// instead of a rejection. It is set for worker processes, which report
	// rejections inside their record.
	ExitIsolation bool
}

// Exec runs an external parser harness per input. Every call gets a fresh
// process, so a crash in the wrapped library takes down only that process.
type Exec struct {
	spec    ExecSpec
	decoder *encoding.Decoder
}

// NewExec validates spec and returns the adapter.
func NewExec(spec ExecSpec) (*Exec, error) {
	if spec.Executable == "" {
		return nil, errors.Wrapf(ErrNoExecutable, "target %q", spec.Name)
	}
	if spec.Name == "" {
		spec.Name = spec.Executable
	}
	if spec.Format != codec.Plain && spec.Format != codec.Structured {
		return nil, errors.Wrapf(ErrUnknownFormat, "target %q", spec.Name)
	}

	e := &Exec{spec: spec}
	if spec.Charset != "" && !strings.EqualFold(spec.Charset, "utf-8") {
		enc, err := ianaindex.IANA.Encoding(spec.Charset)
		if err != nil {
			return nil, errors.Wrapf(err, "target %q charset", spec.Name)
		}
		if enc == nil {
			return nil, errors.Errorf("target %q: charset %q is not supported", spec.Name, spec.Charset)
		}
		e.decoder = enc.NewDecoder()
	}
	return e, nil
}

// Name implements Adapter.
func (e *Exec) Name() string {
	return e.spec.Name
}

// Parse implements Adapter. The process is killed when ctx is done.
func (e *Exec) Parse(ctx context.Context, input []byte) model.Outcome {
	stdout := bytebufferpool.Get()
	defer bytebufferpool.Put(stdout)
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.spec.Executable, e.spec.Args...) //nolint:gosec // configured target
	cmd.Env = append(os.Environ(), e.spec.Env...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contextOutcome(ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return model.Fatal(model.FatalInvoke, err.Error())
		}
		reason := fmt.Sprintf("%s: %s", exitErr, tail(stderr.Bytes()))
		if e.spec.ExitIsolation || exitErr.ExitCode() < 0 {
			return model.Fatal(model.FatalIsolation, reason)
		}
		return model.Rejected(reason)
	}

	out := stdout.B
	if e.decoder != nil {
		decoded, err := e.decoder.Bytes(out)
		if err != nil {
			return model.Fatal(model.FatalProtocol, "decode output: "+err.Error())
		}
		out = decoded
	}

	o, err := e.decode(out)
	if err != nil {
		return buildFailure("", err)
	}
	if e.spec.FilterDefaultPort {
		o = filterPort(o, Split(input))
	}
	return o
}

func (e *Exec) decode(out []byte) (model.Outcome, error) {
	if e.spec.Format == codec.Plain {
		return codec.DecodePlain(out)
	}
	r, err := codec.DecodeStructured(bytes.TrimSpace(out))
	if err != nil {
		return model.Outcome{}, err
	}
	return r.Outcome, nil
}

// filterPort demotes a reported port to an inferred one when the input had
// no literal port token.
func filterPort(o model.Outcome, lex Components) model.Outcome {
	u, ok := o.URL()
	if !ok || lex.LiteralPort() {
		return o
	}
	port, ok := u.Port()
	if !ok {
		return o
	}
	filtered, err := u.Edit().Drop(model.FieldPort).InferredPort(port).Build()
	if err != nil {
		return model.Fatal(model.FatalProtocol, err.Error())
	}
	return model.Success(filtered)
}

func tail(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) > maxStderr {
		b = b[len(b)-maxStderr:]
	}
	return string(b)
}

// NewProcess returns an adapter that runs the built-in adapter name inside
// a child "worker" process of the executable self, typically os.Executable().
// The child prints a Structured record; any non-zero exit is an isolation
// failure.
func NewProcess(self, name string, extraArgs ...string) (*Exec, error) {
	args := append([]string{"worker", "--adapter", name}, extraArgs...)
	return NewExec(ExecSpec{
		Name:          name,
		Executable:    self,
		Args:          args,
		Format:        codec.Structured,
		ExitIsolation: true,
	})
}
