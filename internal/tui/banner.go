package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the hearthd ASCII banner with a warm gradient.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	s1 := termenv.String(" _                     _   _         _ ").Foreground(p.Color("#fb923c"))
	s2 := termenv.String("| |__   ___  __ _ _ __| |_| |__   __| |").Foreground(p.Color("#f97316"))
	s3 := termenv.String("| '_ \\ / _ \\/ _` | '__| __| '_ \\ / _` |").Foreground(p.Color("#ea580c"))
	s4 := termenv.String("| | | |  __/ (_| | |  | |_| | | | (_| |").Foreground(p.Color("#dc2626"))
	s5 := termenv.String("|_| |_|\\___|\\__,_|_|   \\__|_| |_|\\__,_|").Foreground(p.Color("#b91c1c"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(termenv.String("  " + version).Faint())
	fmt.Println()
}
