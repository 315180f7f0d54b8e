package authui

import (
	"encoding/base64"
	"fmt"
	"io"
)

// Clipboard receives copied text.
type Clipboard interface {
	Write(text string) error
}

// OSC52 copies through the terminal's OSC 52 escape sequence, which most
// terminal emulators forward to the system clipboard, including over SSH.
type OSC52 struct {
	W io.Writer
}

func (c OSC52) Write(text string) error {
	_, err := fmt.Fprintf(c.W, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}
