package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/slidingsync/ssync-go/pkg/coordinator"
	"github.com/slidingsync/ssync-go/pkg/engine"
	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// ErrQuit is returned by Execute for quit and exit.
var ErrQuit = errors.New("quit")

// Session executes commands against a coordinator and the in-memory engine
// behind it. Confirmations are watched in the background and reported on
// out when they complete.
type Session struct {
	coord *coordinator.Coordinator
	mem   *engine.Memory
	cache *Cache

	outMu sync.Mutex
	out   io.Writer

	watchers sync.WaitGroup
}

// NewSession creates a session writing to out.
func NewSession(coord *coordinator.Coordinator, mem *engine.Memory, cache *Cache, out io.Writer) *Session {
	return &Session{coord: coord, mem: mem, cache: cache, out: out}
}

// Wait blocks until every confirmation watcher has returned.
func (s *Session) Wait() {
	s.watchers.Wait()
}

// Execute runs one input line. Watchers started by the line stop when ctx
// is done.
func (s *Session) Execute(ctx context.Context, line string) error {
	cmd, ok := Parse(line)
	if !ok {
		return nil
	}

	switch cmd.Name {
	case "help", "?":
		s.printHelp()
		return nil
	case "list":
		return s.list(ctx, cmd.Args)
	case "sort":
		if len(cmd.Args) != 2 {
			return fmt.Errorf("%w: sort <index> k1,k2", ErrUsage)
		}
		return s.list(ctx, []string{cmd.Args[0], "sort", cmd.Args[1]})
	case "visible":
		return s.visible(ctx, cmd.Args)
	case "search":
		return s.search()
	case "complete":
		return s.complete(cmd.Args)
	case "roomdata":
		return s.roomData(cmd.Args)
	case "fail":
		return s.fail(cmd.Args)
	case "status":
		s.status()
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command: %s (type 'help')", cmd.Name)
	}
}

func (s *Session) list(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: list <index> [ranges a-b,..] [sort k1,k2] [timeline n]", ErrUsage)
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("list index: %w", err)
	}
	patch, err := ParsePatch(args[1:])
	if err != nil {
		return err
	}
	return s.registerList(ctx, index, patch)
}

func (s *Session) registerList(ctx context.Context, index int, patch wire.ListPatch) error {
	conf, err := s.coord.RegisterList(ctx, index, patch)
	if err != nil {
		return err
	}
	if conf.Resolved() {
		s.printf("list %d: unchanged\n", index)
		return nil
	}
	s.printf("list %d: pending %s\n", index, shortID(conf.CorrelationID().String()))

	s.watch(func() {
		spec, err := conf.Wait(ctx)
		if err != nil {
			return
		}
		s.printf("list %d: confirmed %s\n", index, formatRanges(spec.Ranges))
	})
	return nil
}

func (s *Session) visible(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: visible <room> on|off", ErrUsage)
	}
	roomID := id.RoomID(args[0])
	visible, err := ParseVisible(args[1])
	if err != nil {
		return err
	}

	conf, err := s.coord.SetRoomVisible(ctx, roomID, visible)
	if err != nil {
		return err
	}
	if conf.Resolved() {
		s.printf("room %s: cached\n", roomID)
		return nil
	}
	s.printf("room %s: waiting for data %s\n", roomID, shortID(conf.CorrelationID().String()))

	s.watch(func() {
		if _, err := conf.Wait(ctx); err != nil {
			return
		}
		s.printf("room %s: data received\n", roomID)
	})
	return nil
}

func (s *Session) search() error {
	idx, err := s.coord.SearchListIndex()
	if err != nil {
		return err
	}
	s.printf("search list: %d\n", idx)
	return nil
}

// complete finishes the current round. With no arguments every list is
// reported; otherwise only the given indices.
func (s *Session) complete(args []string) error {
	var resp *wire.SyncResponse
	if len(args) > 0 {
		resp = &wire.SyncResponse{Lists: make(map[int]wire.ListResponse, len(args))}
		for _, a := range args {
			idx, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("list index: %w", err)
			}
			resp.Lists[idx] = wire.ListResponse{}
		}
	}
	round := s.mem.CompleteRound(resp)
	s.printf("round %d: complete\n", round)
	return nil
}

func (s *Session) roomData(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: roomdata <room> [room...]", ErrUsage)
	}
	rooms := ParseRooms(args)
	resp := &wire.SyncResponse{Rooms: make(map[id.RoomID]wire.RoomResponse, len(rooms))}
	for _, r := range rooms {
		resp.Rooms[r] = wire.RoomResponse{Initial: true}
	}
	s.cache.Add(rooms...)
	round := s.mem.CompleteRound(resp)
	s.printf("round %d: complete with %d rooms\n", round, len(rooms))
	return nil
}

func (s *Session) fail(args []string) error {
	msg := "simulated failure"
	if len(args) > 0 {
		msg = strings.Join(args, " ")
	}
	round := s.mem.FailRound(errors.New(msg))
	s.printf("round %d: errored\n", round)
	return nil
}

func (s *Session) status() {
	s.outMu.Lock()
	defer s.outMu.Unlock()

	fmt.Fprintf(s.out, "State:    %s\n", s.coord.State())
	fmt.Fprintf(s.out, "Session:  %s\n", s.coord.SessionID())
	fmt.Fprintf(s.out, "Round:    %d\n", s.mem.Round())

	specs := s.coord.Lists()
	indices := s.coord.ListIndices()
	fmt.Fprintf(s.out, "Lists:    %d\n", len(indices))
	for _, idx := range indices {
		spec := specs[idx]
		fmt.Fprintf(s.out, "  [%d] ranges=%s sort=%s timeline=%d pending=%d\n",
			idx, formatRanges(spec.Ranges), strings.Join(spec.Sort, ","), spec.TimelineLimit,
			s.coord.PendingListConfirmations(idx))
	}

	rooms := s.coord.Subscriptions()
	fmt.Fprintf(s.out, "Rooms:    %d\n", len(rooms))
	for _, r := range rooms {
		fmt.Fprintf(s.out, "  %s\n", r)
	}
	fmt.Fprintf(s.out, "Pending:  %d\n", s.coord.PendingConfirmations())
}

func (s *Session) printHelp() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  list <index> [ranges a-b,..] [sort k1,k2] [timeline n]")
	fmt.Fprintln(s.out, "  sort <index> k1,k2")
	fmt.Fprintln(s.out, "  visible <room> on|off")
	fmt.Fprintln(s.out, "  search")
	fmt.Fprintln(s.out, "  complete [index...]   finish the current round")
	fmt.Fprintln(s.out, "  roomdata <room>...    finish the round with data for rooms")
	fmt.Fprintln(s.out, "  fail [message]        report the current round as errored")
	fmt.Fprintln(s.out, "  status")
	fmt.Fprintln(s.out, "  quit")
}

func (s *Session) watch(fn func()) {
	s.watchers.Add(1)
	go func() {
		defer s.watchers.Done()
		fn()
	}()
}

func (s *Session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func formatRanges(ranges []wire.Range) string {
	if len(ranges) == 0 {
		return "[]"
	}
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, "")
}

func shortID(s string) string {
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}
