package codec

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/nao1215/urldiff/internal/model"
)

// nilValue marks an absent component in Plain records.
const nilValue = "(nil)"

// Plain labels in output order.
const (
	labelScheme   = "Scheme"
	labelUserinfo = "Userinfo"
	labelHost     = "Host"
	labelPort     = "Port"
	labelPath     = "Path"
	labelQuery    = "Query"
	labelFragment = "Fragment"
	labelOutcome  = "Outcome"
	labelFatal    = "Fatal"
	labelReason   = "Reason"
)

// labelWidth pads "Label:" so that values line up.
const labelWidth = len(labelFragment) + 2

// EncodePlain renders o as labelled lines. Successful parses list the seven
// URL components; failures list the outcome and the quoted reason.
func EncodePlain(o model.Outcome) []byte {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	switch o.Kind() {
	case model.OutcomeSuccess:
		u, _ := o.URL()
		scheme, hasScheme := u.Scheme()
		writeQuoted(bb, labelScheme, scheme, hasScheme)
		userinfo, hasUserinfo := u.Userinfo()
		writeQuoted(bb, labelUserinfo, userinfo, hasUserinfo)
		host, kind := u.Host()
		if kind == model.HostIPv6 {
			host = "[" + host + "]"
		}
		writeQuoted(bb, labelHost, host, kind != model.HostNone)
		if port, ok := u.Port(); ok {
			writeLine(bb, labelPort, strconv.FormatUint(uint64(port), 10))
		} else {
			writeLine(bb, labelPort, nilValue)
		}
		path, hasPath := u.Path()
		writeQuoted(bb, labelPath, path, hasPath)
		query, hasQuery := u.Query()
		writeQuoted(bb, labelQuery, query, hasQuery)
		fragment, hasFragment := u.Fragment()
		writeQuoted(bb, labelFragment, fragment, hasFragment)
	case model.OutcomeRejected:
		writeLine(bb, labelOutcome, o.Kind().String())
		writeQuoted(bb, labelReason, o.Reason(), true)
	default:
		writeLine(bb, labelOutcome, o.Kind().String())
		writeLine(bb, labelFatal, o.FatalKind().String())
		writeQuoted(bb, labelReason, o.Reason(), true)
	}

	return append([]byte(nil), bb.B...)
}

func writeQuoted(bb *bytebufferpool.ByteBuffer, label, value string, present bool) {
	if !present {
		writeLine(bb, label, nilValue)
		return
	}
	writeLine(bb, label, strconv.Quote(value))
}

func writeLine(bb *bytebufferpool.ByteBuffer, label, value string) {
	_, _ = bb.WriteString(label)
	_ = bb.WriteByte(':')
	for i := len(label) + 1; i < labelWidth; i++ {
		_ = bb.WriteByte(' ')
	}
	_, _ = bb.WriteString(value)
	_ = bb.WriteByte('\n')
}

// DecodePlain reads a Plain record. It also accepts the unquoted values and
// "(null)" sentinels printed by C parser harnesses, so the output of such
// programs can be consumed directly. Unknown labels are ignored.
//
// Plain records cannot say whether a host is an IPv4 literal or a
// registered name, so unbracketed hosts are classified with
// model.ClassifyHost.
func DecodePlain(data []byte) (model.Outcome, error) {
	var (
		b       model.Builder
		seen    bool
		kind    = model.OutcomeSuccess
		fatal   model.FatalKind
		reason  string
		scanner = bufio.NewScanner(bytes.NewReader(data))
	)
	scanner.Buffer(make([]byte, 0, 4096), len(data)+1)

	for scanner.Scan() {
		label, raw, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value, present, err := plainValue(raw)
		if err != nil {
			return model.Outcome{}, &DecodeError{Key: label, Err: err}
		}

		switch label {
		case labelOutcome:
			k, ok := model.ParseOutcomeKind(value)
			if !ok {
				return model.Outcome{}, &DecodeError{Key: label, Err: errors.Errorf("unknown outcome %q", value)}
			}
			kind = k
		case labelFatal:
			k, ok := model.ParseFatalKind(value)
			if !ok {
				return model.Outcome{}, &DecodeError{Key: label, Err: errors.Errorf("unknown fatal kind %q", value)}
			}
			fatal = k
		case labelReason:
			reason = value
		case labelScheme:
			seen = true
			if present {
				b.Scheme(value)
			}
		case labelUserinfo:
			seen = true
			if present {
				b.SplitUserinfo(value)
			}
		case labelHost:
			seen = true
			if present {
				b.Host(model.ClassifyHost(value))
			}
		case labelPort:
			seen = true
			if present {
				b.PortText(value)
			}
		case labelPath:
			seen = true
			if present {
				b.Path(value)
			}
		case labelQuery:
			seen = true
			if present {
				b.Query(value)
			}
		case labelFragment:
			seen = true
			if present {
				b.Fragment(value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.Outcome{}, errors.Wrap(err, "scan")
	}

	switch kind {
	case model.OutcomeRejected:
		return model.Rejected(reason), nil
	case model.OutcomeFatal:
		return model.Fatal(fatal, reason), nil
	}
	if !seen {
		return model.Outcome{}, ErrEmptyPlain
	}
	u, err := b.Build()
	if err != nil {
		return model.Outcome{}, errors.Wrap(err, "build")
	}
	return model.Success(u), nil
}

// plainValue interprets the text after "Label:".
func plainValue(raw string) (string, bool, error) {
	v := strings.TrimLeft(raw, " \t")
	switch {
	case v == nilValue || v == "(null)":
		return "", false, nil
	case strings.HasPrefix(v, `"`):
		s, err := strconv.Unquote(strings.TrimRight(v, " \t\r"))
		if err != nil {
			return "", false, errors.Wrap(err, "unquote")
		}
		return s, true, nil
	default:
		return strings.TrimRight(v, "\r"), true, nil
	}
}
