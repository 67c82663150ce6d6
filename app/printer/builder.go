package printer

import (
	"context"
	"strings"
)

// CommandToken is one step of a built document. Keeping documents as token
// lists instead of raw bytes makes them inspectable in tests and in the
// diagnostics page.
type CommandToken struct {
	Op  string
	Arg string
}

// Token ops.
const (
	OpInit  = "init"
	OpAlign = "align" // Arg: left, center, right
	OpBold  = "bold"  // Arg: on, off
	OpFont  = "font"  // Arg: normal, double, large
	OpText  = "text"  // Arg: literal text
	OpFeed  = "feed"  // Arg: repeated newlines
	OpCut   = "cut"
	OpRaw   = "raw" // Arg: pre-rendered command stream
)

// Document is a fluent builder for ad-hoc printer pages: diagnostics, drawer
// kicks, custom labels. Receipt layouts have their own generators; this is
// the escape hatch for everything else.
type Document struct {
	tokens []CommandToken
}

// NewDocument starts a document with the printer reset to defaults.
func NewDocument() *Document {
	d := &Document{}
	d.tokens = append(d.tokens, CommandToken{Op: OpInit})
	return d
}

func (d *Document) AlignLeft() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpAlign, Arg: "left"})
	return d
}

func (d *Document) AlignCenter() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpAlign, Arg: "center"})
	return d
}

func (d *Document) AlignRight() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpAlign, Arg: "right"})
	return d
}

func (d *Document) Bold(on bool) *Document {
	arg := "off"
	if on {
		arg = "on"
	}
	d.tokens = append(d.tokens, CommandToken{Op: OpBold, Arg: arg})
	return d
}

func (d *Document) DoubleWidth() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpFont, Arg: "double"})
	return d
}

func (d *Document) LargeFont() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpFont, Arg: "large"})
	return d
}

func (d *Document) NormalFont() *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpFont, Arg: "normal"})
	return d
}

// Text appends literal text. No newline is added; use Line for full lines.
func (d *Document) Text(s string) *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpText, Arg: s})
	return d
}

// Line appends text followed by a line feed.
func (d *Document) Line(s string) *Document {
	return d.Text(s + "\n")
}

// ClearFormatting returns alignment, emphasis and font size to defaults.
func (d *Document) ClearFormatting() *Document {
	d.tokens = append(d.tokens,
		CommandToken{Op: OpAlign, Arg: "left"},
		CommandToken{Op: OpBold, Arg: "off"},
		CommandToken{Op: OpFont, Arg: "normal"},
	)
	return d
}

// Feed advances the paper n blank lines.
func (d *Document) Feed(n int) *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpFeed, Arg: Feed(n)})
	return d
}

// FeedCutPaper feeds clearance for the cutter blade and cuts.
func (d *Document) FeedCutPaper() *Document {
	d.tokens = append(d.tokens,
		CommandToken{Op: OpFeed, Arg: CmdLineFeed3},
		CommandToken{Op: OpCut},
	)
	return d
}

// Raw splices a pre-rendered command stream, letting generator output and
// builder steps share one document.
func (d *Document) Raw(commands string) *Document {
	d.tokens = append(d.tokens, CommandToken{Op: OpRaw, Arg: commands})
	return d
}

// Tokens returns the accumulated steps.
func (d *Document) Tokens() []CommandToken {
	return d.tokens
}

// Render serializes the document to its wire form.
func (d *Document) Render() string {
	var b strings.Builder
	for _, tok := range d.tokens {
		switch tok.Op {
		case OpInit:
			b.WriteString(CmdInit)
		case OpAlign:
			switch tok.Arg {
			case "center":
				b.WriteString(CmdAlignCenter)
			case "right":
				b.WriteString(CmdAlignRight)
			default:
				b.WriteString(CmdAlignLeft)
			}
		case OpBold:
			if tok.Arg == "on" {
				b.WriteString(CmdBoldOn)
			} else {
				b.WriteString(CmdBoldOff)
			}
		case OpFont:
			switch tok.Arg {
			case "double":
				b.WriteString(CmdFontDouble)
			case "large":
				b.WriteString(CmdFontLarge)
			default:
				b.WriteString(CmdFontNormal)
			}
		case OpCut:
			b.WriteString(CmdCutPaper)
		case OpText, OpFeed, OpRaw:
			b.WriteString(tok.Arg)
		}
	}
	return b.String()
}

// Print renders the document and sends it over the transport.
func (d *Document) Print(ctx context.Context, t Transport) error {
	return t.Write(ctx, []byte(d.Render()))
}
