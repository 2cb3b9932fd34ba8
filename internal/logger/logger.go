package logger

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Colorized printers for each log level. They behave like fmt.Fprintf and are
// bound to the current output writer by the level functions below.
var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiMagenta)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)
)

// out is the destination shared by every level. It defaults to color.Output,
// which handles Windows consoles and disables colors on non-terminals.
var out io.Writer = color.Output

// debugEnabled reports whether Debug prints anything.
var debugEnabled bool

// Info prints progress and success lines in green.
func Info(format string, a ...any) {
	_, _ = infoColor.Fprintf(out, format, a...)
}

// Warn prints non-fatal problems, such as a non-zero install exit code, in bright magenta.
func Warn(format string, a ...any) {
	_, _ = warnColor.Fprintf(out, format, a...)
}

// Error prints failures in red.
func Error(format string, a ...any) {
	_, _ = errorColor.Fprintf(out, format, a...)
}

// Debug prints in cyan once Init(true) has been called and discards otherwise.
func Debug(format string, a ...any) {
	if !debugEnabled {
		return
	}
	_, _ = debugColor.Fprintf(out, format, a...)
}

// Init switches Debug output on or off. The root command calls it with the
// value of --debug before any subcommand runs; the other levels always print.
func Init(enableDebug bool) {
	debugEnabled = enableDebug
}

// SetOutput redirects every level to w and returns the previous writer so
// callers (mostly tests) can restore it.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}

// Writer returns the raw, uncolored destination. Install commands stream
// their output here so it interleaves with the log lines.
func Writer() io.Writer {
	return out
}

// Println writes an uncolored line to the log output. Used for plain results
// such as a printed install order.
func Println(a ...any) {
	_, _ = fmt.Fprintln(out, a...)
}
