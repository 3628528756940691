package codec

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/nao1215/urldiff/internal/model"
)

// Structured record keys that are not component names.
const (
	keyAdapter        = "adapter"
	keyOutcome        = "outcome"
	keyFatal          = "fatal"
	keyReason         = "reason"
	keyHostType       = "host_type"
	keyDecoded        = "decoded"
	keyInferredScheme = "inferred_scheme"
	keyInferredPort   = "inferred_port"
)

// EncodeStructured renders r as a single-line JSON object. Keys appear in a
// fixed order: adapter, outcome, the present components in canonical field
// order, host_type, decoded, inferred values, then fatal and reason.
// Component values and the reason are base64 of their raw bytes.
func EncodeStructured(r model.Result) []byte {
	var e jx.Encoder
	o := r.Outcome

	e.ObjStart()
	if r.Adapter != "" {
		e.FieldStart(keyAdapter)
		e.Str(r.Adapter)
	}
	e.FieldStart(keyOutcome)
	e.Str(o.Kind().String())

	if u, ok := o.URL(); ok {
		for _, f := range model.Fields {
			v, present := u.Value(f)
			if !present {
				continue
			}
			e.FieldStart(f.String())
			e.Base64([]byte(v))
		}
		if kind := u.HostKind(); kind != model.HostNone {
			e.FieldStart(keyHostType)
			e.Str(kind.String())
		}
		if d := u.Decoded(); d != 0 {
			e.FieldStart(keyDecoded)
			e.Str(d.String())
		}
		if s, ok := u.InferredScheme(); ok {
			e.FieldStart(keyInferredScheme)
			e.Base64([]byte(s))
		}
		if p, ok := u.InferredPort(); ok {
			e.FieldStart(keyInferredPort)
			e.Base64([]byte(strconv.FormatUint(uint64(p), 10)))
		}
	} else {
		if o.IsFatal() {
			e.FieldStart(keyFatal)
			e.Str(o.FatalKind().String())
		}
		e.FieldStart(keyReason)
		e.Base64([]byte(o.Reason()))
	}
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

// structuredRecord accumulates the keys of one record while decoding.
type structuredRecord struct {
	seen map[string]bool

	adapter  string
	kind     model.OutcomeKind
	hasKind  bool
	fatal    model.FatalKind
	reason   string
	values   map[model.Field]string
	hostKind model.HostKind
	decoded  model.Presence

	inferredScheme    string
	hasInferredScheme bool
	inferredPort      uint16
	hasInferredPort   bool
}

// DecodeStructured parses a record produced by EncodeStructured. Unknown or
// repeated keys, malformed base64 and inconsistent userinfo are errors.
func DecodeStructured(data []byte) (model.Result, error) {
	rec := structuredRecord{
		seen:   make(map[string]bool),
		values: make(map[model.Field]string),
	}

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if rec.seen[key] {
			return &DecodeError{Key: key, Err: ErrDuplicateKey}
		}
		rec.seen[key] = true
		if err := rec.decodeKey(d, key); err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return err
			}
			return &DecodeError{Key: key, Err: err}
		}
		return nil
	}); err != nil {
		return model.Result{}, errors.Wrap(err, "decode record")
	}
	if d.Next() != jx.Invalid {
		return model.Result{}, ErrTrailingData
	}

	return rec.result()
}

func (rec *structuredRecord) decodeKey(d *jx.Decoder, key string) error {
	switch key {
	case keyAdapter:
		s, err := d.Str()
		rec.adapter = s
		return err
	case keyOutcome:
		s, err := d.Str()
		if err != nil {
			return err
		}
		k, ok := model.ParseOutcomeKind(s)
		if !ok {
			return errors.Errorf("unknown outcome %q", s)
		}
		rec.kind, rec.hasKind = k, true
		return nil
	case keyFatal:
		s, err := d.Str()
		if err != nil {
			return err
		}
		k, ok := model.ParseFatalKind(s)
		if !ok {
			return errors.Errorf("unknown fatal kind %q", s)
		}
		rec.fatal = k
		return nil
	case keyReason:
		b, err := d.Base64()
		rec.reason = string(b)
		return err
	case keyHostType:
		s, err := d.Str()
		if err != nil {
			return err
		}
		k, ok := model.ParseHostKind(s)
		if !ok || k == model.HostNone {
			return errors.Errorf("unknown host type %q", s)
		}
		rec.hostKind = k
		return nil
	case keyDecoded:
		s, err := d.Str()
		if err != nil {
			return err
		}
		p, ok := model.ParsePresence(s)
		if !ok {
			return errors.Errorf("unknown field in %q", s)
		}
		rec.decoded = p
		return nil
	case keyInferredScheme:
		b, err := d.Base64()
		rec.inferredScheme, rec.hasInferredScheme = string(b), true
		return err
	case keyInferredPort:
		b, err := d.Base64()
		if err != nil {
			return err
		}
		p, err := strconv.ParseUint(string(b), 10, 16)
		if err != nil {
			return errors.Wrap(err, "inferred port")
		}
		rec.inferredPort, rec.hasInferredPort = uint16(p), true
		return nil
	}

	f, ok := model.ParseField(key)
	if !ok {
		return ErrUnknownKey
	}
	b, err := d.Base64()
	if err != nil {
		return err
	}
	rec.values[f] = string(b)
	return nil
}

func (rec *structuredRecord) result() (model.Result, error) {
	if !rec.hasKind {
		return model.Result{}, ErrMissingOutcome
	}
	res := model.Result{Adapter: rec.adapter}

	switch rec.kind {
	case model.OutcomeRejected:
		res.Outcome = model.Rejected(rec.reason)
		return res, nil
	case model.OutcomeFatal:
		res.Outcome = model.Fatal(rec.fatal, rec.reason)
		return res, nil
	}

	if _, ok := rec.values[model.FieldHost]; !ok && rec.hostKind != model.HostNone {
		return model.Result{}, &DecodeError{Key: keyHostType, Err: errors.New("host type without host")}
	}

	var b model.Builder
	for f, v := range rec.values {
		switch f {
		case model.FieldScheme:
			b.Scheme(v)
		case model.FieldUserinfo:
			b.Userinfo()
		case model.FieldUser:
			b.User(v)
		case model.FieldPassword:
			b.Password(v)
		case model.FieldHost:
			b.Host(v, rec.hostKind)
		case model.FieldPort:
			p, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return model.Result{}, &DecodeError{Key: f.String(), Err: model.ErrPortRange}
			}
			b.Port(uint16(p))
		case model.FieldPath:
			b.Path(v)
		case model.FieldQuery:
			b.Query(v)
		case model.FieldFragment:
			b.Fragment(v)
		}
	}
	b.Decoded(rec.decoded.Fields()...)
	if rec.hasInferredScheme {
		b.InferredScheme(rec.inferredScheme)
	}
	if rec.hasInferredPort {
		b.InferredPort(rec.inferredPort)
	}

	u, err := b.Build()
	if err != nil {
		return model.Result{}, errors.Wrap(err, "build")
	}
	if want, ok := rec.values[model.FieldUserinfo]; ok {
		if got, _ := u.Userinfo(); got != want {
			return model.Result{}, &DecodeError{Key: model.FieldUserinfo.String(), Err: ErrUserinfoMismatch}
		}
	}
	if u.Decoded() != rec.decoded {
		return model.Result{}, &DecodeError{Key: keyDecoded, Err: errors.New("decoded marks absent fields")}
	}
	res.Outcome = model.Success(u)
	return res, nil
}
