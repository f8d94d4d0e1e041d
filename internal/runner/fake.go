package runner

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Recorder records every command and reports success without running it.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls [][]string
}

// Run records argv.
func (r *Recorder) Run(_ context.Context, argv []string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slices.Clone(argv))
	return Result{}, nil
}

// Calls returns the recorded command lines.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}

// Script answers commands from a table of canned responses keyed by the
// space-joined command line. Each key holds a queue; the last response of a
// queue is repeated once the others are used up. Unknown commands fail with
// exit code 127. It is safe for concurrent use.
type Script struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []string
}

// Response is one canned answer of a Script.
type Response struct {
	Result Result
	Err    error
	// Hook runs when the response is served, before it is returned.
	Hook func()
}

// NewScript returns an empty script.
func NewScript() *Script {
	return &Script{responses: make(map[string][]Response)}
}

// On queues a response for the command line.
func (s *Script) On(cmdline string, resp Response) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[cmdline] = append(s.responses[cmdline], resp)
	return s
}

// OnOutput queues a successful response with the given stdout.
func (s *Script) OnOutput(cmdline, stdout string) *Script {
	return s.On(cmdline, Response{Result: Result{Stdout: []byte(stdout)}})
}

// OnExit queues a response with the given exit code and stderr.
func (s *Script) OnExit(cmdline string, code int, stderr string) *Script {
	return s.On(cmdline, Response{Result: Result{ExitCode: code, Stderr: []byte(stderr)}})
}

// OnSuccess queues an empty successful response for each command line.
func (s *Script) OnSuccess(cmdlines ...string) *Script {
	for _, cmdline := range cmdlines {
		s.On(cmdline, Response{})
	}
	return s
}

// Run serves the next response queued for argv.
func (s *Script) Run(_ context.Context, argv []string) (Result, error) {
	cmdline := strings.Join(argv, " ")

	s.mu.Lock()
	s.calls = append(s.calls, cmdline)
	queue, ok := s.responses[cmdline]
	if !ok || len(queue) == 0 {
		s.mu.Unlock()
		return Result{ExitCode: 127}, fmt.Errorf("unexpected command: %s", cmdline)
	}
	resp := queue[0]
	if len(queue) > 1 {
		s.responses[cmdline] = queue[1:]
	}
	s.mu.Unlock()

	if resp.Hook != nil {
		resp.Hook()
	}
	return resp.Result, resp.Err
}

// Calls returns every command line run so far, in order.
func (s *Script) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallsWithPrefix returns the recorded command lines starting with prefix.
func (s *Script) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
