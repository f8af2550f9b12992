package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Pick returns the candidate at 1-based index i.
func Pick(cands []Candidate, i int) (Candidate, error) {
	if i < 1 || i > len(cands) {
		return Candidate{}, fmt.Errorf("selection %d out of range 1-%d", i, len(cands))
	}
	return cands[i-1], nil
}

// Describer returns a human readable device name for a path.
type Describer func(path string) string

// Select chooses a candidate. A single candidate is returned directly;
// otherwise the list is printed to out and a 1-based index is read from in
// until a valid one is entered. Cancelling ctx abandons the prompt; the
// line reader stays blocked on in until it yields.
func Select(ctx context.Context, cands []Candidate, in io.Reader, out io.Writer, describe Describer) (Candidate, error) {
	switch len(cands) {
	case 0:
		return Candidate{}, ErrNoDevices
	case 1:
		return cands[0], nil
	}

	fmt.Fprintln(out, "Multiple keyboards found:")
	for i, c := range cands {
		label := c.Name
		if describe != nil {
			if d := describe(c.Path); d != "" {
				label = fmt.Sprintf("%s (%s)", c.Name, d)
			}
		}
		fmt.Fprintf(out, "  %d) %s\n", i+1, label)
	}

	lines, errc := readLines(ctx, in)
	for {
		fmt.Fprintf(out, "Select keyboard [1-%d]: ", len(cands))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return Candidate{}, ctx.Err()
		case err := <-errc:
			return Candidate{}, fmt.Errorf("%w: %w", ErrBadSelection, err)
		case line = <-lines:
		}

		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(out, "Please enter a number.")
			continue
		}
		c, err := Pick(cands, n)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		return c, nil
	}
}

// readLines scans in on its own goroutine. The error channel receives
// io.EOF or the read error once no more lines will come.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		errc <- err
	}()
	return lines, errc
}
