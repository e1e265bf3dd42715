// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// prompter asks for passwords. On a terminal input is read without echo;
// otherwise the next line of input is used.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	fd           int
	terminal     bool
	readPassword func(fd int) ([]byte, error)
}

func (c *cli) newPrompter(cmd *cobra.Command, in *bufio.Reader) *prompter {
	fd := -1
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		fd = int(f.Fd())
	}
	return &prompter{
		in:           in,
		out:          cmd.ErrOrStderr(),
		fd:           fd,
		terminal:     c.deps.IsTerminal(fd),
		readPassword: c.deps.PasswordReader,
	}
}

// Password returns value when set, and prompts for one otherwise.
func (p *prompter) Password(value string) (string, error) {
	if value != "" {
		return value, nil
	}

	_, _ = fmt.Fprint(p.out, "Password: ")
	if p.terminal {
		secret, err := p.readPassword(p.fd)
		_, _ = fmt.Fprintln(p.out)
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return string(secret), nil
	}

	line, err := readLine(p.in)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return line, nil
}

// readLine returns the next line without its terminator. io.EOF is only
// returned when nothing was read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}
