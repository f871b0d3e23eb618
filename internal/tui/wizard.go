// Package tui renders setup wizards on an interactive terminal: glamour
// for the markdown narration, termenv for colors, and hidden input for
// secret fields.
package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/hearthd/hearthd/pkg/schema"
)

// Wizard drives a question-and-answer session over stdin/stdout.
type Wizard struct {
	in     *bufio.Reader
	out    io.Writer
	render func(string) (string, error)
}

// NewWizard builds a wizard on the process terminal.
func NewWizard() *Wizard {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	render := func(md string) (string, error) { return md, nil }
	if r != nil {
		render = r.Render
	}
	return &Wizard{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		render: render,
	}
}

// Markdown renders and prints a markdown fragment.
func (w *Wizard) Markdown(md string) {
	rendered, err := w.render(md)
	if err != nil {
		rendered = md
	}
	fmt.Fprint(w.out, rendered)
}

// Errorf prints an error line in red.
func (w *Wizard) Errorf(format string, args ...any) {
	p := termenv.ColorProfile()
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(p.Color("#ef4444"))
	fmt.Fprintln(w.out, msg)
}

// Successf prints a confirmation line in green.
func (w *Wizard) Successf(format string, args ...any) {
	p := termenv.ColorProfile()
	msg := termenv.String(fmt.Sprintf(format, args...)).Foreground(p.Color("#22c55e"))
	fmt.Fprintln(w.out, msg)
}

// Ask prompts for one form field and returns the parsed value. The second
// return is false when the user left an optional field blank.
func (w *Wizard) Ask(field schema.FieldDescriptor) (any, bool, error) {
	prompt := field.Name
	if field.Default != nil {
		prompt += fmt.Sprintf(" [%v]", field.Default)
	} else if !field.Required {
		prompt += " (optional)"
	}
	if len(field.Options) > 0 {
		prompt += " {" + strings.Join(field.Options, ", ") + "}"
	}
	fmt.Fprintf(w.out, "%s: ", prompt)

	var line string
	var err error
	if field.Secret {
		line, err = w.readSecret()
	} else {
		line, err = w.in.ReadString('\n')
	}
	if err != nil && line == "" {
		return nil, false, err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}

	val, err := parseValue(field.Type, line)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (w *Wizard) readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return w.in.ReadString('\n')
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(w.out)
	return string(raw), err
}

// parseValue coerces terminal input into the field's declared type. The
// schema validates again afterwards; this only handles the string-to-value
// step a JSON transport gets for free.
func parseValue(fieldType, raw string) (any, error) {
	switch fieldType {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a whole number, got %q", raw)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		return f, nil
	case "bool":
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("expected yes or no, got %q", raw)
	default:
		return raw, nil
	}
}
