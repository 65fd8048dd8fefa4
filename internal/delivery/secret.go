package delivery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// SecretFunc supplies the mail password when a session is opened.
type SecretFunc func() (string, error)

// ErrEmptySecret is returned when no password was entered.
var ErrEmptySecret = errors.New("empty password")

// PromptSecret returns a SecretFunc that writes prompt to out and reads the
// password from in. Terminals are read without echo; other inputs (pipes,
// files) are read up to the first newline.
func PromptSecret(in *os.File, out io.Writer, prompt string) SecretFunc {
	return func() (string, error) {
		fmt.Fprint(out, prompt)

		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return nonEmpty(string(b))
		}

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return nonEmpty(strings.TrimRight(line, "\r\n"))
	}
}

// StaticSecret returns a SecretFunc that always yields secret.
func StaticSecret(secret string) SecretFunc {
	return func() (string, error) { return nonEmpty(secret) }
}

func nonEmpty(s string) (string, error) {
	if s == "" {
		return "", ErrEmptySecret
	}
	return s, nil
}
