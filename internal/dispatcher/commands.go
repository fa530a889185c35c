package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"shipmap/internal/vessel"
)

// Operator commands. They are posted to the loop like any other event.
type (
	Select struct{ MMSI vessel.ID }
	Clear  struct{}
	List   struct{}
	Quit   struct{}
)

var ErrEmptyCommand = errors.New("empty command")

// ParseCommand reads one operator line:
//
//	select <mmsi> | s <mmsi>
//	clear | c
//	list | l
//	quit | q
func ParseCommand(line string) (Event, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	switch fields[0] {
	case "select", "s":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: select <mmsi>")
		}
		id, err := vessel.ParseID(fields[1])
		if err != nil {
			return nil, err
		}
		return Select{MMSI: id}, nil
	case "clear", "c":
		return Clear{}, nil
	case "list", "l":
		return List{}, nil
	case "quit", "q", "exit":
		return Quit{}, nil
	}
	return nil, fmt.Errorf("unknown command %q", fields[0])
}

// ReadCommands posts one event per valid line of r until r is exhausted
// or ctx is done. Bad lines are logged and skipped.
func (d *Dispatcher) ReadCommands(ctx context.Context, r io.Reader, lg *slog.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		ev, err := ParseCommand(sc.Text())
		if errors.Is(err, ErrEmptyCommand) {
			continue
		}
		if err != nil {
			lg.Warn("bad command", "line", sc.Text(), "err", err)
			continue
		}
		if !d.Post(ev) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		lg.Warn("command input closed", "err", err)
	}
}
