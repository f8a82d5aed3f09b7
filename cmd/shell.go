package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/shlex"

	"ftpc/internal/extension"
	"ftpc/util"
)

const prompt = "ftp> "

// shell is a line-oriented front end over the registered commands.
// Lines are split with shell quoting rules, so names with spaces can be
// quoted.
type shell struct {
	reg    *extension.Context
	in     io.Reader
	out    io.Writer
	logger *util.Logger
}

func (s *shell) run(ctx context.Context) error {
	sc := bufio.NewScanner(s.in)
	fmt.Fprintln(s.out, `Type "connect" to open the session, "help" for commands.`)

	for {
		fmt.Fprint(s.out, prompt)
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}

		argv, err := shlex.Split(sc.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			continue
		}
		if len(argv) == 0 {
			continue
		}

		switch argv[0] {
		case "quit", "exit", "bye":
			return nil
		case "help", "?":
			s.help()
			continue
		}

		name, args, err := resolve(argv)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			continue
		}
		s.logger.Debug("dispatch %s %q", name, args)
		if err := s.reg.Run(ctx, name, args); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *shell) help() {
	desc := make(map[string]string)
	for _, c := range s.reg.Commands() {
		desc[c.Name] = c.Description
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.name, c.usage, desc[c.target])
	}
	fmt.Fprintf(tw, "  quit\tEnd the session and exit\n")
	tw.Flush()
}
