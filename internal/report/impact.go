package report

import (
	"sort"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/urldiff/internal/model"
)

// HostReading is one distinct reading of the host and the adapters that
// share it.
type HostReading struct {
	Adapters []string       `json:"adapters"`
	Present  bool           `json:"present"`
	Host     string         `json:"host,omitempty"`
	Kind     model.HostKind `json:"kind,omitempty"`

	// ASCII is the IDNA lookup form of a registered name.
	ASCII string `json:"ascii,omitempty"`

	// Site is the registrable domain (eTLD+1) of a registered name, or the
	// address itself for IP literals. It is empty when neither applies,
	// e.g. for "localhost".
	Site string `json:"site,omitempty"`
}

// Impact summarizes what a host divergence means for a client: whether the
// adapters would contact different sites.
type Impact struct {
	Hosts []HostReading `json:"hosts"`

	// CrossSite reports whether two readings name different sites, or the
	// same text as different host kinds.
	CrossSite bool `json:"cross_site"`
}

// ComputeImpact returns the impact of v's host evidence, or nil when the
// host is not among v's divergent fields.
func ComputeImpact(v model.Verdict) *Impact {
	var values []model.AdapterValue
	for _, fv := range v.Values {
		if fv.Field == model.FieldHost {
			values = fv.Values
			break
		}
	}
	if len(values) == 0 {
		return nil
	}

	type readingKey struct {
		present bool
		host    string
		kind    model.HostKind
	}
	byReading := make(map[readingKey][]string)
	for _, av := range values {
		key := readingKey{present: av.Present}
		if av.Present {
			key.host = av.Value
			key.kind = av.HostKind
		}
		byReading[key] = append(byReading[key], av.Adapter)
	}

	impact := &Impact{Hosts: make([]HostReading, 0, len(byReading))}
	sites := make(map[string]bool)
	for key, adapters := range byReading {
		sort.Strings(adapters)
		h := HostReading{Adapters: adapters, Present: key.present, Host: key.host, Kind: key.kind}
		if h.Present {
			h.ASCII, h.Site = site(h.Host, h.Kind)
			sites[siteKey(h)] = true
		}
		impact.Hosts = append(impact.Hosts, h)
	}
	sort.Slice(impact.Hosts, func(i, j int) bool {
		return impact.Hosts[i].Adapters[0] < impact.Hosts[j].Adapters[0]
	})
	impact.CrossSite = len(sites) > 1
	return impact
}

// site returns the lookup form and registrable domain of host.
func site(host string, kind model.HostKind) (ascii, registrable string) {
	switch kind {
	case model.HostIPv4, model.HostIPv6:
		return "", strings.ToLower(host)
	case model.HostName:
		a, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", ""
		}
		ascii = a
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(a); err == nil {
			registrable = etld1
		}
		return ascii, registrable
	default:
		return "", ""
	}
}

// siteKey identifies the site a reading reaches. Readings without a known
// site fall back to their host text.
func siteKey(h HostReading) string {
	switch {
	case h.Site != "":
		return h.Kind.String() + ":" + h.Site
	case h.ASCII != "":
		return h.Kind.String() + ":" + h.ASCII
	default:
		return h.Kind.String() + ":" + strings.ToLower(h.Host)
	}
}
