// Package save converts game state to and from the persisted snapshot. The
// JSON layout is the browser save format: decimals as strings, lastUpdate
// in unix milliseconds, maxPoints under records and the tick period under
// options.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"idlegalaxy/internal/bignum"
	"idlegalaxy/internal/game"
)

var ErrCorrupt = errors.New("corrupt save")

const (
	// maxTimestamp is the largest unix millisecond a browser Date can hold.
	maxTimestamp = 8.64e15
	// maxUpdateRate keeps the tick period well inside time.Duration.
	maxUpdateRate = float64(24 * time.Hour / time.Millisecond)
)

type Snapshot struct {
	Points     bignum.Decimal `json:"points"`
	Generator  bignum.Decimal `json:"generator"`
	Boost      bignum.Decimal `json:"boost"`
	Energy     bignum.Decimal `json:"energy"`
	Galaxies   bignum.Decimal `json:"galaxies"`
	Records    Records        `json:"records"`
	LastUpdate int64          `json:"lastUpdate"`
	Options    Options        `json:"options"`
}

type Records struct {
	MaxPoints bignum.Decimal `json:"maxPoints"`
}

type Options struct {
	// UpdateRate is the tick period in milliseconds.
	UpdateRate int64 `json:"updateRate"`
}

func Defaults(now time.Time) Snapshot {
	return FromState(*game.NewState(now))
}

func FromState(st game.State) Snapshot {
	return Snapshot{
		Points:     st.Points,
		Generator:  st.GeneratorLevel,
		Boost:      st.BoostLevel,
		Energy:     st.Energy,
		Galaxies:   st.Galaxies,
		Records:    Records{MaxPoints: st.MaxPoints},
		LastUpdate: st.LastUpdate.UnixMilli(),
		Options:    Options{UpdateRate: st.UpdateRate.Milliseconds()},
	}
}

func (s Snapshot) State() game.State {
	return game.State{
		Points:         s.Points,
		GeneratorLevel: s.Generator,
		BoostLevel:     s.Boost,
		Energy:         s.Energy,
		Galaxies:       s.Galaxies,
		MaxPoints:      s.Records.MaxPoints,
		LastUpdate:     time.UnixMilli(s.LastUpdate).UTC(),
		UpdateRate:     time.Duration(s.Options.UpdateRate) * time.Millisecond,
	}
}

func Encode(st game.State) ([]byte, error) {
	return json.Marshal(FromState(st))
}

// Decode parses a stored save and reconciles it against the defaults for
// now. Fields that are missing, null, of the wrong type, negative or NaN
// fall back to their default; everything else present in the save wins.
func Decode(raw []byte, now time.Time) (game.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		if err == nil {
			err = errors.New("top level is not an object")
		}
		return game.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return reconcile(Defaults(now), fields).State(), nil
}

func reconcile(def Snapshot, fields map[string]json.RawMessage) Snapshot {
	out := def
	out.Points = decimalField(fields, "points", def.Points)
	out.Generator = decimalField(fields, "generator", def.Generator)
	out.Boost = decimalField(fields, "boost", def.Boost)
	out.Energy = decimalField(fields, "energy", def.Energy)
	out.Galaxies = decimalField(fields, "galaxies", def.Galaxies)
	if v, ok := numberField(fields, "lastUpdate"); ok && v >= 0 && v <= maxTimestamp {
		out.LastUpdate = int64(v)
	}

	if records, ok := objectField(fields, "records"); ok {
		out.Records.MaxPoints = decimalField(records, "maxPoints", def.Records.MaxPoints)
	}
	if options, ok := objectField(fields, "options"); ok {
		if v, ok := numberField(options, "updateRate"); ok && v >= 1 && v <= maxUpdateRate {
			out.Options.UpdateRate = int64(v)
		}
	}
	return out
}

func decimalField(fields map[string]json.RawMessage, key string, def bignum.Decimal) bignum.Decimal {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var d *bignum.Decimal
	if err := json.Unmarshal(raw, &d); err != nil || d == nil {
		return def
	}
	if d.IsNaN() || d.Sign() < 0 {
		return def
	}
	return *d
}

func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return 0, false
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func objectField(fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
