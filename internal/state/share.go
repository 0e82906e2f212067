package state

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/theirongolddev/homecalc/internal/model"
)

// Share link query parameters.
const (
	ParamAfford = "a"
	ParamRefi   = "r"
	ParamCalc   = "calc"
)

// EncodePayload returns v as standard base64 of its JSON encoding.
func EncodePayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("state: encoding share payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayload reverses EncodePayload. It returns nil when s is not
// base64 or does not hold a JSON object.
func DecodePayload(s string) map[string]any {
	if s == "" {
		return nil
	}
	// A '+' pasted into a query string arrives as a space.
	s = strings.ReplaceAll(s, " ", "+")
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Query strings sometimes lose their padding or use the URL alphabet.
		if data, err = base64.RawURLEncoding.DecodeString(s); err != nil {
			return nil
		}
	}
	return decodeObject(data)
}

// ShareQuery builds the share link parameters for the current inputs.
func ShareQuery(afford model.AffordInputs, refi model.RefiInputs, calc model.Calculator) (url.Values, error) {
	a, err := EncodePayload(afford)
	if err != nil {
		return nil, err
	}
	r, err := EncodePayload(refi)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set(ParamAfford, a)
	q.Set(ParamRefi, r)
	q.Set(ParamCalc, string(calc))
	return q, nil
}

// ShareURL appends the share parameters to base, replacing any already
// present.
func ShareURL(base string, afford model.AffordInputs, refi model.RefiInputs, calc model.Calculator) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("state: parsing share base %q: %w", base, err)
	}
	share, err := ShareQuery(afford, refi, calc)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range share {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ApplyShare overlays shared inputs on snap. Corrupt parameters are
// skipped; the rest still apply. It reports whether anything was applied.
func ApplyShare(snap Snapshot, q url.Values) (Snapshot, bool) {
	applied := false
	if raw := DecodePayload(q.Get(ParamAfford)); raw != nil {
		snap.Afford = MergeAfford(snap.Afford, raw, true)
		applied = true
	}
	if raw := DecodePayload(q.Get(ParamRefi)); raw != nil {
		snap.Refi = MergeRefi(snap.Refi, raw, true)
		applied = true
	}
	if c := q.Get(ParamCalc); ValidCalculator(c) {
		snap.Settings.ActiveCalc = model.Calculator(c)
		applied = true
	}
	return snap, applied
}

// ParseShare accepts a full share URL or a bare query string.
func ParseShare(link string) (url.Values, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("state: parsing share link: %w", err)
	}
	if u.RawQuery == "" && u.Scheme == "" && u.Host == "" {
		return url.ParseQuery(u.Path)
	}
	return u.Query(), nil
}
