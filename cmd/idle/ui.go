package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"idlegalaxy/internal/bignum"
	"idlegalaxy/internal/format"
	"idlegalaxy/internal/game"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
	dim     = color.New(color.FgHiBlack)
)

var milestoneText = map[string]string{
	game.MultPerPoint.String(): "x2 production for every x20 points",
	game.BoostAddSelf.String(): "Boosts greatly strengthen themselves",
	game.EnergyBoost.String():  "Energy boosts production",
	game.UnlockGalaxy.String(): "Unlock galaxies",
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\033[H\033[2J")
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderView prints the game screen: resources, the two upgrades, the reset
// button, milestones and galaxies, each only once it would be visible.
func renderView(w io.Writer, v game.View) {
	accent.Fprintln(w, "== IDLE GALAXY ==")
	fmt.Fprintf(w, "You have %s points.\n", format.Format(v.Points, 2, 1))
	if v.EnergyVisible {
		fmt.Fprintf(w, "You have %s energy.\n", format.Format(v.Energy, 2, 0))
	}
	fmt.Fprintln(w)

	if v.Generator.Visible {
		row(w, v.Generator.Affordable, "Generator",
			fmt.Sprintf("level %s", format.FormatInt(v.Generator.Level)),
			fmt.Sprintf("currently +%s/s", format.Format(v.Generator.Effect, 2, 0)),
			fmt.Sprintf("cost %s points", format.Format(v.Generator.Cost, 2, 0)),
		)
	}
	if v.Boost.Visible {
		if v.Boost.Unlocked {
			row(w, v.Boost.Affordable, "Boost",
				fmt.Sprintf("level %s", format.FormatInt(v.Boost.Level)),
				"currently "+format.FormatX(v.Boost.Effect, 2, 1),
				fmt.Sprintf("cost %s points", format.Format(v.Boost.Cost, 2, 0)),
			)
		} else {
			row(w, false, "Boost", fmt.Sprintf("buy %s generators to unlock", format.FormatInt(bignum.New(3))))
		}
	}

	fmt.Fprintln(w)
	r := v.FirstReset
	switch {
	case !r.CanReset:
		row(w, false, "Reset", fmt.Sprintf("reach %s points to reset", format.Format(r.Requirement, 2, 0)))
	case r.EnergyGain.Gt(bignum.Zero):
		row(w, true, "Reset", fmt.Sprintf("reset points, generators and boosts for +%s energy", format.Format(r.EnergyGain, 2, 0)))
	default:
		row(w, true, "Reset", fmt.Sprintf("next energy at %s points", format.Format(r.NextEnergyAt, 2, 0)))
	}

	if v.MilestonesVisible {
		fmt.Fprintln(w)
		accent.Fprintln(w, "Milestones")
		for _, m := range v.Milestones {
			parts := []string{
				milestoneText[m.ID],
				fmt.Sprintf("requires %s energy", format.FormatInt(m.Requirement)),
			}
			if m.ID != game.UnlockGalaxy.String() {
				parts = append(parts, "currently "+format.FormatX(m.Effect, 2, 0))
			}
			row(w, m.Applied, m.ID, parts...)
		}
	}

	if v.Galaxy.Unlocked {
		fmt.Fprintln(w)
		accent.Fprintln(w, "Galaxies")
		fmt.Fprintf(w, "You have %s galaxies, boosting boosts by %s.\n",
			format.FormatInt(v.Galaxy.Amount), format.FormatX(v.Galaxy.Effect, 2, 0))
		hint := ""
		if v.Galaxy.AutoReset {
			hint = " (resets automatically)"
		}
		row(w, v.Galaxy.Affordable, "Galaxy",
			fmt.Sprintf("cost %s energy%s", format.Format(v.Galaxy.Cost, 2, 0), hint))
	}
}

func row(w io.Writer, enabled bool, name string, parts ...string) {
	label := dim.Sprintf("%-16s", name)
	if enabled {
		label = success.Sprintf("%-16s", name)
	}
	fmt.Fprintf(w, "%s %s\n", label, strings.Join(parts, " | "))
}
