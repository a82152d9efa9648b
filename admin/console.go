// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package admin

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/generalzzd/0-db/store"
)

// Console is a line-editing REPL for operators attached to a running
// process, offering the same put/get/delete/check primitives as the
// HTTP surface without going over the network.
type Console struct {
	st   *store.Store
	line *liner.State
}

// NewConsole wraps st with an interactive console reading from stdin.
func NewConsole(st *store.Store) *Console {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return &Console{st: st, line: l}
}

// Close releases the underlying terminal state.
func (c *Console) Close() error {
	return c.line.Close()
}

// Run reads commands until EOF or an explicit "quit", writing output
// to out. Supported commands: put <key> <value>, get <key>,
// delete <key>, check <key>, quit.
func (c *Console) Run(out io.Writer) {
	for {
		input, err := c.line.Prompt("zdb> ")
		if err != nil {
			return
		}

		c.line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "quit", "exit":
			return
		case "put":
			c.cmdPut(out, args)
		case "get":
			c.cmdGet(out, args)
		case "delete":
			c.cmdDelete(out, args)
		case "check":
			c.cmdCheck(out, args)
		default:
			fmt.Fprintf(out, "unknown command %q\n", cmd)
		}
	}
}

func (c *Console) cmdPut(out io.Writer, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(out, "usage: put <key> <value>")
		return
	}
	key, value := args[0], strings.Join(args[1:], " ")
	if err := c.st.Put([]byte(key), []byte(value)); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}
	fmt.Fprintln(out, "ok")
}

func (c *Console) cmdGet(out io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: get <key>")
		return
	}
	value, err := c.st.Get([]byte(args[0]))
	if err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}
	fmt.Fprintf(out, "%s\n", value)
}

func (c *Console) cmdDelete(out io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: delete <key>")
		return
	}
	if err := c.st.Delete([]byte(args[0])); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}
	fmt.Fprintln(out, "ok")
}

func (c *Console) cmdCheck(out io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: check <key>")
		return
	}
	if err := c.st.Check([]byte(args[0])); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}
	fmt.Fprintln(out, "ok")
}
