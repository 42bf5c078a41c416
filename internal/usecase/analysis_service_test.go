package usecase

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

type fakeAssistant struct {
	mu           sync.Mutex
	instructions string
	instrErr     error
	openErr      error
	stream       *fakeCompletionStream
	opened       bool
	systemPrompt string
	userMessage  string
}

func (f *fakeAssistant) FetchInstructions(context.Context) (string, error) {
	return f.instructions, f.instrErr
}

func (f *fakeAssistant) StreamCompletion(_ context.Context, systemPrompt, userMessage string) (CompletionStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	f.systemPrompt, f.userMessage = systemPrompt, userMessage
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

func (f *fakeAssistant) wasOpened() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// fakeCompletionStream yields tokens, then err (io.EOF when nil).
type fakeCompletionStream struct {
	mu     sync.Mutex
	tokens []string
	err    error
	block  chan struct{}
	closed bool
}

func (s *fakeCompletionStream) Recv() (string, error) {
	s.mu.Lock()
	if len(s.tokens) > 0 {
		token := s.tokens[0]
		s.tokens = s.tokens[1:]
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *fakeCompletionStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeCompletionStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func collect(out <-chan string) []string {
	var got []string
	for fragment := range out {
		got = append(got, fragment)
	}
	return got
}

func TestAnalysisService_StreamsFragmentsInOrder(t *testing.T) {
	t.Parallel()

	stream := &fakeCompletionStream{tokens: []string{"Hello ", "wor", "ld. ", "Next sentence."}}
	assistant := &fakeAssistant{instructions: "You are a football analyst.", stream: stream}
	service := NewAnalysisService(assistant, logging.NewNop())

	out := make(chan string)
	errCh := make(chan error, 1)
	go func() { errCh <- service.StreamAnalysis(context.Background(), out, []byte(`{"match_info":{}}`)) }()

	got := collect(out)
	if err := <-errCh; err != nil {
		t.Fatalf("stream analysis: %v", err)
	}
	want := []string{"Hello ", "world. ", "Next sentence."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected fragments %q, got=%q", want, got)
	}
	if assistant.systemPrompt != "You are a football analyst." || assistant.userMessage != `{"match_info":{}}` {
		t.Fatalf("unexpected prompt: system=%q user=%q", assistant.systemPrompt, assistant.userMessage)
	}
	if !stream.isClosed() {
		t.Fatalf("expected upstream stream to be closed")
	}
}

func TestAnalysisService_FormatsFragments(t *testing.T) {
	t.Parallel()

	stream := &fakeCompletionStream{tokens: []string{"# Preview\n", "**Key** ", "point - ", "done."}}
	service := NewAnalysisService(&fakeAssistant{stream: stream}, logging.NewNop())

	out := make(chan string, 16)
	if err := service.StreamAnalysis(context.Background(), out, []byte(`{}`)); err != nil {
		t.Fatalf("stream analysis: %v", err)
	}
	for _, fragment := range collect(out) {
		for _, banned := range []string{"#", "*", "-"} {
			if strings.Contains(fragment, banned) {
				t.Fatalf("fragment %q still contains %q", fragment, banned)
			}
		}
	}
}

func TestAnalysisService_InstructionsFailureSendsDiagnostic(t *testing.T) {
	t.Parallel()

	assistant := &fakeAssistant{instrErr: errors.New("status 401")}
	service := NewAnalysisService(assistant, logging.NewNop())

	out := make(chan string, 4)
	err := service.StreamAnalysis(context.Background(), out, []byte(`{}`))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got=%v", err)
	}

	got := collect(out)
	if !reflect.DeepEqual(got, []string{AnalysisFailedFragment}) {
		t.Fatalf("expected a single diagnostic fragment, got=%q", got)
	}
	if assistant.wasOpened() {
		t.Fatalf("expected completion not to be requested")
	}
}

func TestAnalysisService_MidStreamFailure(t *testing.T) {
	t.Parallel()

	stream := &fakeCompletionStream{tokens: []string{"First part. "}, err: errors.New("connection reset")}
	service := NewAnalysisService(&fakeAssistant{stream: stream}, logging.NewNop())

	out := make(chan string, 4)
	err := service.StreamAnalysis(context.Background(), out, []byte(`{}`))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got=%v", err)
	}
	got := collect(out)
	if !reflect.DeepEqual(got, []string{"First part. ", AnalysisFailedFragment}) {
		t.Fatalf("unexpected fragments: %q", got)
	}
	if !stream.isClosed() {
		t.Fatalf("expected upstream stream to be closed")
	}
}

func TestAnalysisService_ClientCancelStopsWithoutDiagnostic(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	stream := &fakeCompletionStream{tokens: []string{"Opening line. "}, block: block, err: context.Canceled}
	service := NewAnalysisService(&fakeAssistant{stream: stream}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan string)
	errCh := make(chan error, 1)
	go func() { errCh <- service.StreamAnalysis(ctx, out, []byte(`{}`)) }()

	select {
	case first := <-out:
		if first != "Opening line. " {
			t.Fatalf("unexpected first fragment: %q", first)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for first fragment")
	}

	cancel()
	close(block)

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stream to stop")
	}

	if rest := collect(out); len(rest) != 0 {
		t.Fatalf("expected no fragments after cancel, got=%q", rest)
	}
	if !stream.isClosed() {
		t.Fatalf("expected upstream stream to be closed")
	}
}
