package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunHandlesEventsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(ctx, 8, discardLogger())

	for i := 0; i < 5; i++ {
		d.Post(i)
	}

	var got []int
	err := d.Run(func(ev Event) {
		got = append(got, ev.(int))
		if len(got) == 5 {
			cancel()
		}
	})
	if err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("handled %v", got)
	}
}

func TestGoPostsResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(ctx, 8, discardLogger())

	d.Go(func(context.Context) Event { return "done" })
	d.Go(func(context.Context) Event { return nil })

	var got []Event
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	_ = d.Run(func(ev Event) { got = append(got, ev) })
	d.Wait()

	if len(got) != 1 || got[0] != "done" {
		t.Errorf("handled %v, want [done]", got)
	}
}

func TestEveryTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(ctx, 8, discardLogger())

	d.Every(ctx, 10*time.Millisecond, func() Event { return "tick" })

	n := 0
	_ = d.Run(func(ev Event) {
		n++
		if n == 3 {
			cancel()
		}
	})
	d.Wait()
	if n != 3 {
		t.Errorf("ticks handled = %d, want 3", n)
	}
}

func TestPostAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(ctx, 1, discardLogger())
	d.Post("fill")
	cancel()

	if d.Post("blocked") {
		t.Error("Post should fail once the context is done and the queue is full")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    Event
		wantErr bool
	}{
		{line: "select 257123000", want: Select{MMSI: 257123000}},
		{line: "  S 230123000 ", want: Select{MMSI: 230123000}},
		{line: "clear", want: Clear{}},
		{line: "l", want: List{}},
		{line: "quit", want: Quit{}},
		{line: "select", wantErr: true},
		{line: "select OTSO", wantErr: true},
		{line: "dance", wantErr: true},
		{line: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCommand(%q) expected error, got %v", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q) unexpected error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestReadCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := New(ctx, 8, discardLogger())

	d.ReadCommands(ctx, strings.NewReader("select 257123000\n\nbogus\nclear\n"), discardLogger())

	var got []Event
	for len(d.events) > 0 {
		got = append(got, <-d.events)
	}
	want := []Event{Select{MMSI: 257123000}, Clear{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("posted %#v, want %#v", got, want)
	}
}
