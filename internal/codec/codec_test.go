package codec

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nao1215/urldiff/internal/model"
)

func build(t *testing.T, f func(b *model.Builder)) model.URL {
	t.Helper()
	var b model.Builder
	f(&b)
	u, err := b.Build()
	require.NoError(t, err)
	return u
}

func sampleOutcomes(t *testing.T) map[string]model.Outcome {
	t.Helper()
	return map[string]model.Outcome{
		"full": model.Success(build(t, func(b *model.Builder) {
			b.Scheme("HTTP").SplitUserinfo("user:pass").Host("example.com", model.HostName).
				Port(8080).Path("/path").Query("q=1").Fragment("frag")
		})),
		"empty components": model.Success(build(t, func(b *model.Builder) {
			b.Scheme("http").Userinfo().Host("", model.HostName).Path("").Query("").Fragment("")
		})),
		"password without user": model.Success(build(t, func(b *model.Builder) {
			b.Scheme("ftp").SplitUserinfo(":secret").Host("::1", model.HostIPv6).Port(0)
		})),
		"arbitrary bytes": model.Success(build(t, func(b *model.Builder) {
			b.Path("/a\x00b\n\xff").Query("\"},{\"x\":1").Fragment("(nil)")
		})),
		"decoded and inferred": model.Success(build(t, func(b *model.Builder) {
			b.Scheme("http").Host("a b", model.HostName).Path("/é").
				Decoded(model.FieldHost, model.FieldPath).InferredPort(80).InferredScheme("http")
		})),
		"ipv4": model.Success(build(t, func(b *model.Builder) {
			b.Host("127.0.0.1", model.HostIPv4).Port(65535)
		})),
		"rejected":    model.Rejected("missing protocol scheme"),
		"fatal panic": model.Fatal(model.FatalPanic, "runtime error: index out of range"),
		"timeout":     model.Fatal(model.FatalTimeout, ""),
	}
}

func TestStructuredRoundTrip(t *testing.T) {
	t.Parallel()

	for name, o := range sampleOutcomes(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			in := model.Result{Adapter: "lib/" + name, Outcome: o}
			data := EncodeStructured(in)
			require.NotContains(t, string(data), "\n", "record must be single-line")

			out, err := DecodeStructured(data)
			require.NoError(t, err)
			require.Equal(t, in.Adapter, out.Adapter)
			require.True(t, in.Outcome.Equal(out.Outcome), "round trip changed outcome:\n%s\n%s", in.Outcome, out.Outcome)

			if u, ok := o.URL(); ok {
				got, _ := out.Outcome.URL()
				require.Equal(t, u.Presence(), got.Presence())
			}
		})
	}
}

func TestEncodingDeterminism(t *testing.T) {
	t.Parallel()

	for name, o := range sampleOutcomes(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := model.Result{Adapter: "a", Outcome: o}
			require.Equal(t, EncodeStructured(r), EncodeStructured(r))
			require.Equal(t, EncodePlain(o), EncodePlain(o))
		})
	}
}

func TestAbsencePreservation(t *testing.T) {
	t.Parallel()

	absent := model.Success(build(t, func(b *model.Builder) {
		b.Scheme("http").Host("a", model.HostName)
	}))
	empty := model.Success(build(t, func(b *model.Builder) {
		b.Scheme("http").Host("a", model.HostName).Query("")
	}))

	t.Run("structured omits absent fields", func(t *testing.T) {
		t.Parallel()

		data := string(EncodeStructured(model.Result{Outcome: absent}))
		require.NotContains(t, data, `"query"`)
		require.NotContains(t, data, `"port"`)
		require.Contains(t, string(EncodeStructured(model.Result{Outcome: empty})), `"query":""`)
	})

	t.Run("plain distinguishes empty from nil", func(t *testing.T) {
		t.Parallel()

		require.Contains(t, string(EncodePlain(absent)), "Query:    (nil)\n")
		require.Contains(t, string(EncodePlain(empty)), "Query:    \"\"\n")
	})

	t.Run("literal (nil) text is not absence", func(t *testing.T) {
		t.Parallel()

		nilText := model.Success(build(t, func(b *model.Builder) { b.Path("(nil)") }))
		decoded, err := DecodePlain(EncodePlain(nilText))
		require.NoError(t, err)
		u, _ := decoded.URL()
		path, ok := u.Path()
		require.True(t, ok)
		require.Equal(t, "(nil)", path)
	})
}

func TestStructuredScenarioPayloads(t *testing.T) {
	t.Parallel()

	o := sampleOutcomes(t)["full"]
	data := string(EncodeStructured(model.Result{Outcome: o}))

	want := map[string]string{
		"scheme":   "HTTP",
		"userinfo": "user:pass",
		"user":     "user",
		"password": "pass",
		"host":     "example.com",
		"port":     "8080",
		"path":     "/path",
		"query":    "q=1",
		"fragment": "frag",
	}
	for key, value := range want {
		require.Contains(t, data, `"`+key+`":"`+base64.StdEncoding.EncodeToString([]byte(value))+`"`, key)
	}
	require.Contains(t, data, `"host_type":"name"`)
	require.True(t, strings.HasPrefix(data, `{"outcome":"success","scheme":`), data)
}

func TestPlainEncoding(t *testing.T) {
	t.Parallel()

	t.Run("full record", func(t *testing.T) {
		t.Parallel()

		want := "Scheme:   \"HTTP\"\n" +
			"Userinfo: \"user:pass\"\n" +
			"Host:     \"example.com\"\n" +
			"Port:     8080\n" +
			"Path:     \"/path\"\n" +
			"Query:    \"q=1\"\n" +
			"Fragment: \"frag\"\n"
		require.Equal(t, want, string(EncodePlain(sampleOutcomes(t)["full"])))
	})

	t.Run("newlines stay escaped", func(t *testing.T) {
		t.Parallel()

		data := EncodePlain(sampleOutcomes(t)["arbitrary bytes"])
		require.Equal(t, 7, bytes.Count(data, []byte("\n")))
	})

	t.Run("ipv6 host is bracketed", func(t *testing.T) {
		t.Parallel()

		data := string(EncodePlain(sampleOutcomes(t)["password without user"]))
		require.Contains(t, data, "Host:     \"[::1]\"\n")
		require.Contains(t, data, "Userinfo: \":secret\"\n")
	})

	t.Run("failures", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, "Outcome:  rejected\nReason:   \"bad\"\n", string(EncodePlain(model.Rejected("bad"))))
		require.Equal(t, "Outcome:  fatal\nFatal:    timeout\nReason:   \"slow\"\n",
			string(EncodePlain(model.Fatal(model.FatalTimeout, "slow"))))
	})
}

func TestDecodePlain(t *testing.T) {
	t.Parallel()

	t.Run("round trip of plain-representable outcomes", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"full", "empty components", "password without user", "arbitrary bytes", "ipv4", "rejected", "fatal panic"} {
			o := sampleOutcomes(t)[name]
			got, err := DecodePlain(EncodePlain(o))
			require.NoError(t, err, name)
			require.True(t, o.Equal(got), "%s: %s != %s", name, o, got)
		}
	})

	t.Run("unquoted harness output", func(t *testing.T) {
		t.Parallel()

		out := "Scheme:   http\nUserinfo: (null)\nHost:     10.0.0.1\nPort:     (nil)\nPath:     /x y\nQuery:    (nil)\nFragment: (nil)\n"
		o, err := DecodePlain([]byte(out))
		require.NoError(t, err)
		u, ok := o.URL()
		require.True(t, ok)
		host, kind := u.Host()
		require.Equal(t, "10.0.0.1", host)
		require.Equal(t, model.HostIPv4, kind)
		path, _ := u.Path()
		require.Equal(t, "/x y", path)
		require.Equal(t, model.Of(model.FieldScheme, model.FieldHost, model.FieldPath), u.Presence())
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, err := DecodePlain(nil)
		require.ErrorIs(t, err, ErrEmptyPlain)
	})

	t.Run("bad quoting", func(t *testing.T) {
		t.Parallel()

		_, err := DecodePlain([]byte("Path: \"unterminated\n"))
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "Path", de.Key)
	})
}

func TestDecodeStructuredErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		record string
		target error
	}{
		{name: "unknown key", record: `{"outcome":"success","bogus":""}`, target: ErrUnknownKey},
		{name: "duplicate key", record: `{"outcome":"success","path":"","path":""}`, target: ErrDuplicateKey},
		{name: "missing outcome", record: `{"path":""}`, target: ErrMissingOutcome},
		{name: "userinfo mismatch", record: `{"outcome":"success","userinfo":"YTpi","user":"YQ=="}`, target: ErrUserinfoMismatch},
		{name: "port out of range", record: `{"outcome":"success","port":"NzAwMDA="}`, target: model.ErrPortRange},
		{name: "host without type", record: `{"outcome":"success","host":"YQ=="}`, target: model.ErrHostKindNone},
		{name: "trailing data", record: `{"outcome":"rejected","reason":""} {}`, target: ErrTrailingData},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := DecodeStructured([]byte(tc.record))
			require.ErrorIs(t, err, tc.target)
		})
	}

	t.Run("invalid base64", func(t *testing.T) {
		t.Parallel()

		_, err := DecodeStructured([]byte(`{"outcome":"success","path":"!!"}`))
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, "path", de.Key)
	})
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	enc, err := ParseEncoding("Structured")
	require.NoError(t, err)
	require.Equal(t, Structured, enc)

	_, err = ParseEncoding("xml")
	require.ErrorIs(t, err, ErrUnknownEncoding)
}
