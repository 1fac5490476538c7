package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/arborlabs/arbor/internal/presentation/tui"
	"github.com/arborlabs/arbor/pkg/dialog"
	"github.com/arborlabs/arbor/pkg/playback"
)

// Player runs a dialog session as an interactive terminal loop.
type Player struct {
	in       io.Reader
	out      io.Writer
	render   func(string) (string, error)
	showUI   bool
	maxSteps int
}

// PlayerOption configures the Player.
type PlayerOption func(*Player)

// WithIO overrides the input and output streams, for tests and piping.
func WithIO(in io.Reader, out io.Writer) PlayerOption {
	return func(p *Player) {
		p.in = in
		p.out = out
		p.showUI = false
	}
}

// NewPlayer creates a Player. When stdout is a terminal, questions are
// rendered as markdown and choices are colorized.
func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{
		in:     os.Stdin,
		out:    os.Stdout,
		showUI: term.IsTerminal(int(os.Stdout.Fd())),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.showUI {
		p.render = tui.NewRenderer()
	} else {
		p.render = func(s string) (string, error) { return s + "\n", nil }
	}
	return p
}

// Run plays the graph from startID until an ending or until the player
// quits. Choices are presented 1-based; q, quit and exit leave early.
func (p *Player) Run(g *dialog.Graph, startID string) error {
	sess, err := playback.Start(g, startID)
	if err != nil {
		return err
	}

	if p.showUI {
		tui.PrintBanner()
	}

	reader := bufio.NewReader(p.in)
	for {
		view := sess.Current()

		if view.Ended {
			fmt.Fprintln(p.out, "The dialog has ended.")
			return nil
		}

		question, err := p.render(view.Question)
		if err != nil {
			question = view.Question + "\n"
		}
		fmt.Fprint(p.out, question)

		if len(view.Choices) == 0 {
			// A scene with no answers is a terminal resting point.
			fmt.Fprintln(p.out, "(no choices here)")
			return nil
		}

		for _, c := range view.Choices {
			if p.showUI {
				fmt.Fprintln(p.out, tui.ChoiceLine(c.Index+1, c.Text))
			} else {
				fmt.Fprintf(p.out, "%2d) %s\n", c.Index+1, c.Text)
			}
		}

		index, quit, err := p.prompt(reader, len(view.Choices))
		if err != nil {
			return err
		}
		if quit {
			fmt.Fprintln(p.out, "Bye!")
			return nil
		}

		if err := sess.Choose(index); err != nil {
			if errors.Is(err, dialog.ErrChoiceOutOfRange) {
				fmt.Fprintf(p.out, "Please pick a number between 1 and %d.\n", len(view.Choices))
				continue
			}
			return err
		}
	}
}

func (p *Player) prompt(reader *bufio.Reader, max int) (int, bool, error) {
	for {
		fmt.Fprint(p.out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, true, nil
			}
			return 0, false, err
		}

		input := strings.TrimSpace(line)
		switch input {
		case "q", "quit", "exit":
			return 0, true, nil
		case "":
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintf(p.out, "Please pick a number between 1 and %d.\n", max)
			continue
		}
		return n - 1, false, nil
	}
}
