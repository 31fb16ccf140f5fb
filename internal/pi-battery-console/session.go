package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/batteryclient"
)

// client is the part of the engine the console talks to.
type client interface {
	Write(data []byte, offset int64) (int, error)
	GetProperty(supply battery.Supply, prop battery.Property) (interface{}, error)
	GetAll(supply battery.Supply) (map[string]interface{}, error)
	Identify() (string, error)
}

type busClient struct{}

func (busClient) Write(data []byte, offset int64) (int, error) {
	return batteryclient.Write(data, offset)
}

func (busClient) GetProperty(supply battery.Supply, prop battery.Property) (interface{}, error) {
	return batteryclient.GetProperty(supply, prop)
}

func (busClient) GetAll(supply battery.Supply) (map[string]interface{}, error) {
	return batteryclient.GetAll(supply)
}

func (busClient) Identify() (string, error) {
	return batteryclient.Identify()
}

const helpText = `key=value   add a line to the pending batch
(empty)     send the pending batch as one write
abort       drop the pending batch
pending     show the pending batch
show [SUP]  print BAT0, AC0 or both
get SUP P   print one property
id          print the engine identity
help        this text
`

// session collects key=value lines into a batch and sends it on an empty
// line, so one write carries the whole update.
type session struct {
	c       client
	out     io.Writer
	pending []string
}

func newSession(c client, out io.Writer) *session {
	return &session{c: c, out: out}
}

func (s *session) handle(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		s.submit()
		return
	}
	if strings.Contains(line, "=") {
		s.pending = append(s.pending, line)
		return
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		fmt.Fprint(s.out, helpText)
	case "abort":
		s.pending = nil
		fmt.Fprintln(s.out, "Batch dropped")
	case "pending":
		for _, l := range s.pending {
			fmt.Fprintln(s.out, l)
		}
	case "id":
		id, err := s.c.Identify()
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, id)
	case "get":
		if len(fields) != 3 {
			fmt.Fprintln(s.out, "Usage: get SUPPLY PROPERTY")
			return
		}
		v, err := s.c.GetProperty(battery.Supply(fields[1]), battery.Property(fields[2]))
		switch {
		case errors.Is(err, battery.ErrUnsupportedProperty):
			fmt.Fprintf(s.out, "%s does not report %s\n", fields[1], fields[2])
		case err != nil:
			fmt.Fprintf(s.out, "Error: %v\n", err)
		default:
			fmt.Fprintln(s.out, v)
		}
	case "show":
		supplies := []battery.Supply{battery.Battery, battery.AC}
		if len(fields) > 1 {
			supply, err := battery.ParseSupply(fields[1])
			if err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				return
			}
			supplies = []battery.Supply{supply}
		}
		for _, supply := range supplies {
			s.show(supply)
		}
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (try 'help')\n", fields[0])
	}
}

func (s *session) submit() {
	if len(s.pending) == 0 {
		return
	}
	data := []byte(strings.Join(s.pending, "\n") + "\n")
	n, err := s.c.Write(data, 0)
	switch {
	case errors.Is(err, battery.ErrBusy):
		fmt.Fprintln(s.out, "Engine busy, batch kept. Send an empty line to retry.")
		return
	case err != nil:
		fmt.Fprintf(s.out, "Batch rejected: %v\n", err)
	default:
		fmt.Fprintf(s.out, "Applied %d lines (%d bytes)\n", len(s.pending), n)
	}
	s.pending = nil
}

func (s *session) show(supply battery.Supply) {
	props, err := s.c.GetAll(supply)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s\n", supply)
	for _, p := range battery.SupportedProperties(supply) {
		if v, ok := props[string(p)]; ok {
			fmt.Fprintf(s.out, "  %-20s %v\n", p, v)
		}
	}
}
