package generation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patentai/internal/llm"
	llmclient "patentai/internal/llmClient"
	"patentai/internal/patent"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	failAt int // 1-based; 0 never fails
}

func (r *recorder) Emit(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && len(r.events)+1 >= r.failAt {
		return io.ErrClosedPipe
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		if e.Section != "" {
			out = append(out, string(e.Type)+":"+e.Section)
		} else {
			out = append(out, string(e.Type))
		}
	}
	return out
}

type sleeps struct {
	mu sync.Mutex
	d  []time.Duration
}

func (s *sleeps) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.d = append(s.d, d)
	s.mu.Unlock()
	return ctx.Err()
}

func widgetRequest() Request {
	return Request{
		RunID: "run-1",
		Generation: patent.GenerationRequest{
			Invention: patent.FromDisclosure(patent.InventionDisclosure{
				Title: "Widget", Problem: "X", Solution: "Y", TechnicalDescription: "Z",
			}),
			Office: patent.PatentOffice{Name: "USPTO", FullName: "United States Patent and Trademark Office"},
			Format: patent.FormatText,
		},
	}
}

func testProfile() llmclient.Profile {
	p, _ := llmclient.ProfileFor(llmclient.ProviderGroq)
	return p
}

func newTestOrchestrator(client llm.Client, s *sleeps) *Orchestrator {
	if s == nil {
		s = &sleeps{}
	}
	return New(client, testProfile(), WithSleeper(s.sleep))
}

// bySection answers with "<section> text" and applies an optional failure
// to one section.
func bySection(fail map[string]error) *llm.FakeClient {
	f := llm.NewFakeClient()
	f.Respond = func(req llm.ChatRequest) (string, error) {
		g := widgetRequest().Generation
		for _, name := range patent.Sections() {
			if req.User == patent.BuildPrompt(name, g.Invention, g.Office, g.Format) {
				if err, ok := fail[name]; ok {
					return "", err
				}
				return name + " body text here", nil
			}
		}
		return "", errors.New("unexpected prompt")
	}
	return f
}

// assertGrammar checks section_start, content*, section_complete per section
// in order, then one terminal event.
func assertGrammar(t *testing.T, events []Event) {
	t.Helper()
	require.NotEmpty(t, events)
	open := ""
	for i, e := range events {
		switch e.Type {
		case EventSectionStart:
			require.Empty(t, open, "event %d: section %s started inside %s", i, e.Section, open)
			open = e.Section
		case EventContent:
			require.Equal(t, open, e.Section, "event %d: content outside its section", i)
		case EventSectionComplete:
			require.Equal(t, open, e.Section, "event %d", i)
			open = ""
		case EventComplete, EventError:
			require.Equal(t, len(events)-1, i, "terminal event must be last")
		}
	}
	assert.True(t, events[len(events)-1].Terminal())
}

func TestRun_EmitsEverySectionInOrder(t *testing.T) {
	rec := &recorder{}
	o := newTestOrchestrator(bySection(nil), nil)

	res, err := o.Run(context.Background(), widgetRequest(), rec)
	require.NoError(t, err)
	assertGrammar(t, rec.events)

	var starts []string
	contents := map[string]int{}
	for _, e := range rec.events {
		switch e.Type {
		case EventSectionStart:
			starts = append(starts, e.Section)
		case EventContent:
			contents[e.Section]++
		}
	}
	assert.Equal(t, patent.Sections(), starts)
	for _, name := range patent.Sections() {
		assert.GreaterOrEqual(t, contents[name], 1, name)
	}
	assert.Equal(t, EventComplete, rec.events[len(rec.events)-1].Type)

	assert.Equal(t, "run-1", res.RunID)
	assert.True(t, res.Completed())
	assert.Equal(t, "Title body text here ", res.Sections[0].Content)
	assert.True(t, strings.HasPrefix(res.Document(), "## Title\n\nTitle body text here \n\n## Abstract"))
}

func TestRun_RateLimitedSectionDegradesSoftly(t *testing.T) {
	rec := &recorder{}
	client := bySection(map[string]error{
		patent.SectionClaims: &llmclient.RateLimitError{Attempts: 3},
	})
	o := newTestOrchestrator(client, nil)

	res, err := o.Run(context.Background(), widgetRequest(), rec)
	require.NoError(t, err)
	assertGrammar(t, rec.events)

	types := rec.types()
	i := indexOf(types, "section_start:Claims")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, Content(patent.SectionClaims, RateLimitNotice("Claims", "Groq")), rec.events[i+1])
	assert.Equal(t, SectionComplete(patent.SectionClaims, true), rec.events[i+2])
	assert.Equal(t, "section_start:Detailed Description", types[i+3])
	assert.Equal(t, "complete", types[len(types)-1])

	assert.True(t, res.Sections[5].Warning())
	assert.Contains(t, RateLimitNotice("Claims", "Groq"), "Rate limit reached for Claims with Groq API")
}

func TestRun_HardFailureEndsStream(t *testing.T) {
	rec := &recorder{}
	hard := &llmclient.StatusError{StatusCode: 500, Status: "500 Internal Server Error", Body: "boom"}
	client := bySection(map[string]error{patent.SectionBackground: hard})
	o := newTestOrchestrator(client, nil)

	res, err := o.Run(context.Background(), widgetRequest(), rec)
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, patent.SectionBackground, pe.Section)
	assertGrammar(t, rec.events)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "API Error: 500")

	types := rec.types()
	bg := indexOf(types, "section_start:Background")
	errorCount := 0
	for _, ty := range types[bg+1:] {
		assert.NotContains(t, ty, "section_start")
		if ty == "error" {
			errorCount++
		}
	}
	assert.Equal(t, 1, errorCount)
	assert.Len(t, client.Calls(), 4)
	assert.Equal(t, StateFailed, res.Sections[3].State)
	assert.False(t, res.Completed())
}

func TestRun_EmitFailureStopsProviderCalls(t *testing.T) {
	rec := &recorder{failAt: 3} // section_start:Title, content, then fail
	client := bySection(nil)
	o := newTestOrchestrator(client, nil)

	_, err := o.Run(context.Background(), widgetRequest(), rec)
	var ee *EmitError
	require.ErrorAs(t, err, &ee)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Len(t, client.Calls(), 1)
	for _, e := range rec.events {
		assert.NotEqual(t, EventError, e.Type)
	}
}

func TestRun_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := llm.NewFakeClient()
	client.Respond = func(llm.ChatRequest) (string, error) {
		cancel()
		return "", context.Canceled
	}
	rec := &recorder{}
	o := newTestOrchestrator(client, nil)
	_, err := o.Run(ctx, widgetRequest(), rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, client.Calls(), 1)
	for _, e := range rec.events {
		assert.NotEqual(t, EventError, e.Type)
	}
}

func TestRun_PacingSchedule(t *testing.T) {
	s := &sleeps{}
	client := llm.NewFakeClient()
	client.Respond = func(llm.ChatRequest) (string, error) { return "one two three four", nil }
	o := New(client, testProfile(), WithSleeper(s.sleep), WithPacing(Pacing{
		SectionGap: 500 * time.Millisecond, ChunkSize: 3, ChunkDelay: 30 * time.Millisecond, AfterSection: 200 * time.Millisecond,
	}))
	_, err := o.Run(context.Background(), widgetRequest(), &recorder{})
	require.NoError(t, err)

	// Per section: [gap], chunk, chunk, after. No gap before the first section.
	var want []time.Duration
	for i := range patent.Sections() {
		if i > 0 {
			want = append(want, 500*time.Millisecond)
		}
		want = append(want, 30*time.Millisecond, 30*time.Millisecond, 200*time.Millisecond)
	}
	assert.Equal(t, want, s.d)
}

func TestRun_PanicBecomesErrorEvent(t *testing.T) {
	client := llm.NewFakeClient()
	client.Respond = func(llm.ChatRequest) (string, error) { panic("provider blew up") }
	rec := &recorder{}
	o := newTestOrchestrator(client, nil)
	_, err := o.Run(context.Background(), widgetRequest(), rec)
	require.Error(t, err)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "provider blew up")
}

func TestRun_SendsSystemInstruction(t *testing.T) {
	client := llm.NewFakeClient()
	o := newTestOrchestrator(client, nil)
	_, err := o.Run(context.Background(), widgetRequest(), &recorder{})
	require.NoError(t, err)
	calls := client.Calls()
	require.Len(t, calls, len(patent.Sections()))
	for _, c := range calls {
		assert.Equal(t, patent.SystemInstruction, c.System)
		assert.Equal(t, 0.7, c.Temperature)
		assert.Equal(t, 1024, c.MaxTokens)
	}
}

// Wires the real Groq client against a mock provider that always rate
// limits the claims prompt.
func TestRun_WithGroqClientAgainstMockProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "Write patent claims") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"generated section"}}]}`)
	}))
	defer srv.Close()

	groq, err := llmclient.NewGroqClient("k", "", nil,
		llmclient.WithGroqBaseURL(srv.URL),
		llmclient.WithGroqRetrier(&llmclient.Retrier{Policy: llmclient.GroqRetryPolicy, Sleep: (&sleeps{}).sleep}),
	)
	require.NoError(t, err)

	rec := &recorder{}
	o := newTestOrchestrator(groq, nil)
	res, err := o.Run(context.Background(), widgetRequest(), rec)
	require.NoError(t, err)
	assertGrammar(t, rec.events)
	assert.True(t, res.Sections[5].Warning())
	assert.Equal(t, StateComplete, res.Sections[6].State)
}

func TestChunks(t *testing.T) {
	assert.Nil(t, Chunks("", 3))
	assert.Equal(t, []string{"a b c ", "d "}, Chunks("a b c d", 3))
	assert.Equal(t, []string{"1. first\n2. second ", "claim "}, Chunks("1. first\n2. second claim", 3))
	assert.Equal(t, []string{"a ", " ", "b "}, Chunks("a  b", 1))
	assert.Equal(t, "a b c d ", strings.Join(Chunks("a b c d", 2), ""))
}

func TestEncodeSSE(t *testing.T) {
	b, err := EncodeSSE(Content("Title", "A \"quoted\"\nline"))
	require.NoError(t, err)
	assert.Equal(t, "data: {\"type\":\"content\",\"section\":\"Title\",\"content\":\"A \\\"quoted\\\"\\nline\"}\n\n", string(b))

	b, _ = EncodeSSE(Complete())
	assert.Equal(t, "data: {\"type\":\"complete\"}\n\n", string(b))

	b, _ = EncodeSSE(SectionComplete("Claims", true))
	assert.Equal(t, "data: {\"type\":\"section_complete\",\"section\":\"Claims\",\"warning\":true}\n\n", string(b))
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
