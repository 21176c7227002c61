package game

import (
	"errors"
	"fmt"
	"strings"

	"idlegalaxy/internal/bignum"
)

// GameSpeed scales every tick's elapsed time.
const GameSpeed = 1.0

var (
	d0 = bignum.Zero
	d1 = bignum.One
	d2 = bignum.New(2)
	d3 = bignum.New(3)
	d5 = bignum.New(5)
	e1 = bignum.New(1e1)
	e2 = bignum.New(1e2)
	e3 = bignum.New(1e3)
)

var ErrUnknownAction = errors.New("unknown action")

// Action names one player trigger.
type Action string

const (
	ActionBuyGenerator Action = "buy_generator"
	ActionBuyBoost     Action = "buy_boost"
	ActionFirstReset   Action = "first_reset"
	ActionBuyGalaxy    Action = "buy_galaxy"
	ActionMaxGalaxies  Action = "max_galaxies"
)

func Actions() []Action {
	return []Action{
		ActionBuyGenerator,
		ActionBuyBoost,
		ActionFirstReset,
		ActionBuyGalaxy,
		ActionMaxGalaxies,
	}
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}
