package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Arbor.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("    _         _               ").Foreground(p.Color("#4ade80"))
	s2 := termenv.String("   / \\   _ __| |__   ___  _ __").Foreground(p.Color("#34d399"))
	s3 := termenv.String("  / _ \\ | '__| '_ \\ / _ \\| '__|").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" / ___ \\| |  | |_) | (_) | |").Foreground(p.Color("#22d3ee"))
	s5 := termenv.String("/_/   \\_\\_|  |_.__/ \\___/|_|").Foreground(p.Color("#38bdf8"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}

// ChoiceLine formats one numbered choice for the playback prompt.
func ChoiceLine(number int, text string) string {
	p := termenv.ColorProfile()
	num := termenv.String(fmt.Sprintf("%2d)", number)).Foreground(p.Color("#38bdf8")).Bold()
	return fmt.Sprintf("%s %s", num, text)
}
