package render

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/powerm17/automated-home-decor/internal/suggestions"
)

const (
	// Placeholder is shown for items the backend had nothing to suggest for.
	Placeholder = "No suggestions available"

	// SwatchSize is the edge length of a colour swatch in pixels.
	SwatchSize = 50
)

// Group is one item heading and the lines displayed under it.
type Group struct {
	Name  string
	Lines []string
	Empty bool
}

// Swatch is one prominent colour. Valid reports whether Color is safe to
// place in a CSS declaration as-is.
type Swatch struct {
	Color string
	Size  int
	Valid bool
}

var cssColorRe = regexp.MustCompile(`^(?i:[a-z]+|(?:rgb|rgba|hsl|hsla)\([0-9.%,/ +-]+\))$`)

// ValidColor accepts hex colours, named colours and rgb()/hsl() functions.
func ValidColor(c string) bool {
	if strings.HasPrefix(c, "#") {
		if strings.Trim(c[1:], "0123456789abcdefABCDEF") != "" {
			return false
		}
		_, err := colorful.Hex(c)
		return err == nil
	}
	return cssColorRe.MatchString(c)
}

// Result is the display model for a suggestion response.
type Result struct {
	Groups   []Group
	Swatches []Swatch
}

// Render maps a response to its display model. It never reorders, filters
// or deduplicates and does not modify resp.
func Render(resp *suggestions.Response) Result {
	if resp == nil {
		return Result{}
	}

	res := Result{
		Groups:   make([]Group, 0, len(resp.Items)),
		Swatches: make([]Swatch, 0, len(resp.ProminentColors)),
	}
	for _, item := range resp.Items {
		g := Group{Name: item.Name}
		if len(item.Suggestions) == 0 {
			g.Empty = true
			g.Lines = []string{Placeholder}
		} else {
			g.Lines = append([]string(nil), item.Suggestions...)
		}
		res.Groups = append(res.Groups, g)
	}
	for _, c := range resp.ProminentColors {
		res.Swatches = append(res.Swatches, Swatch{Color: c, Size: SwatchSize, Valid: ValidColor(c)})
	}
	return res
}

type TextOptions struct {
	// Color draws hex swatches with 24-bit ANSI backgrounds.
	Color bool
}

// WriteText prints a result for a terminal.
func WriteText(w io.Writer, res Result, opts TextOptions) error {
	var b strings.Builder

	b.WriteString("Suggested Items:\n")
	for _, g := range res.Groups {
		fmt.Fprintf(&b, "  %s\n", g.Name)
		for _, line := range g.Lines {
			if g.Empty {
				fmt.Fprintf(&b, "    %s\n", line)
				continue
			}
			fmt.Fprintf(&b, "    - %s\n", line)
		}
	}

	b.WriteString("\nProminent Colors:\n")
	for _, s := range res.Swatches {
		fmt.Fprintf(&b, "  %s %s\n", block(s.Color, opts.Color), s.Color)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func block(color string, ansi bool) string {
	if !ansi {
		return "[]"
	}
	c, err := colorful.Hex(color)
	if err != nil {
		// named or non-hex colours have no terminal rendering
		return "  "
	}
	r, g, bl := c.RGB255()
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", r, g, bl)
}
