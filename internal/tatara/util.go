package tatara

import "fmt"

// colorPrinter is the slice of the gookit/color API the output helpers
// need; *color.Theme and *color.Style both satisfy it.
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintln prints a styled line, falling back to plain fmt when no
// style is given.
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// debugf traces to stdout when TATARA_DEBUG is set.
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
