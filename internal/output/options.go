package output

import "io"

// Option configures a Printer.
type Option func(*Printer)

// ForTerminal selects how Codi writes to the user's terminal. Test mode gives
// deterministic plain lines, a terminal without color support (or NO_COLOR)
// gets plain prefixed lines, and everything else uses the lipgloss theme.
func ForTerminal(testMode bool) Option {
	return func(p *Printer) {
		switch {
		case testMode:
			DisableColors()
			TestMode()(p)
		case !ShouldUseColor():
			DisableColors()
			PlainText()(p)
		default:
			WithStyles(NewTheme())(p)
		}
	}
}

// WithStyles uses provider when it reports itself available.
func WithStyles(provider StyleProvider) Option {
	return func(p *Printer) {
		if provider != nil && provider.IsAvailable() {
			p.styleProvider = provider
		}
	}
}

// WithWriter redirects output, for example to a capture buffer. Default is os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(p *Printer) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// PlainText drops styling and keeps the status prefixes.
func PlainText() Option {
	return func(p *Printer) {
		p.mode = ModePlain
		p.forcePlain = true
	}
}

// JSON writes one object per line, for piping conversation output to tools.
func JSON() Option {
	return func(p *Printer) {
		p.mode = ModeJSON
	}
}

// TestMode is PlainText with deterministic output.
func TestMode() Option {
	return func(p *Printer) {
		p.testMode = true
		p.mode = ModePlain
		p.forcePlain = true
	}
}

// Silent discards everything, for reporters whose progress nobody reads.
func Silent() Option {
	return func(p *Printer) {
		p.silent = true
	}
}

// WithPrefix tags every line with prefix, e.g. "[slack] ".
func WithPrefix(prefix string) Option {
	return func(p *Printer) {
		p.prefix = prefix
	}
}
