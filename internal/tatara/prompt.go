package tatara

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

// SelectVariant asks the operator which firmware variant to provision.
// On a terminal it shows a full-screen picker; otherwise it falls back to
// a plain reprompt loop on stdin. Invalid input is reprompted without
// limit; end of input is fatal since no valid selection can ever arrive.
func SelectVariant() (Variant, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if v, err := selectVariantTUI(); err == nil {
			return v, nil
		} else if err != errTUIUnavailable {
			return "", err
		}
		// TUI could not start (no usable TERM); fall through to stdin.
	}
	return selectVariantStdin(os.Stdin, os.Stdout)
}

var errTUIUnavailable = fmt.Errorf("terminal UI unavailable")

func selectVariantTUI() (Variant, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return "", errTUIUnavailable
	}

	app := tview.NewApplication().SetScreen(screen)

	var choice Variant
	list := tview.NewList().
		AddItem("stellar", "Stellar flight-controller firmware", 's', func() {
			choice = VariantStellar
			app.Stop()
		}).
		AddItem("nimbus", "Nimbus base-station firmware", 'n', func() {
			choice = VariantNimbus
			app.Stop()
		})
	list.SetBorder(true).SetTitle(" Select firmware variant ")

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyCtrlC {
			choice = ""
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(list, true).Run(); err != nil {
		return "", errTUIUnavailable
	}
	if choice == "" {
		return "", fmt.Errorf("variant selection cancelled")
	}
	return choice, nil
}

func selectVariantStdin(in io.Reader, out io.Writer) (Variant, error) {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	prompt := fmt.Sprintf("Firmware variant [%s]: ", strings.Join(names, "/"))

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("no variant selected: %w", err)
		}
		v, perr := ParseVariant(strings.TrimSpace(line))
		if perr == nil {
			return v, nil
		}
		cPrintln(colWarn, "Invalid input.")
		if err != nil {
			return "", fmt.Errorf("no variant selected: %w", err)
		}
	}
}
