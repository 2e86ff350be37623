package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voxloop/internal/chat"
	"voxloop/internal/speech"
	"voxloop/internal/storage/sqlite"
	"voxloop/internal/transcribe"
	"voxloop/pkg/logger"
)

type fakeTrigger struct {
	signals int
}

func (f *fakeTrigger) Await(ctx context.Context) error {
	f.signals++
	return nil
}

type fakeCapture struct {
	stopped bool
	err     error
}

func (f *fakeCapture) Stop() error {
	f.stopped = true
	return f.err
}

type fakeRecorder struct {
	capture *fakeCapture
	started int
}

func (f *fakeRecorder) Start(ctx context.Context) (Capture, error) {
	f.started++
	return f.capture, nil
}

type fakePlayer struct {
	played [][]byte
}

func (f *fakePlayer) Play(audio []byte) error {
	f.played = append(f.played, audio)
	return nil
}

// newMockedPipeline wires real API clients against an httptest server that
// serves all three endpoints, with fakes for the process-facing components.
func newMockedPipeline(t *testing.T, handler http.Handler, msgLimit int) (*Pipeline, *fakeTrigger, *fakeRecorder, *fakePlayer) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	audioFile := filepath.Join(t.TempDir(), "rec.wav")
	if err := os.WriteFile(audioFile, []byte("RIFFfake"), 0o600); err != nil {
		t.Fatalf("write audio file: %v", err)
	}

	log := logger.Nop()
	trig := &fakeTrigger{}
	rec := &fakeRecorder{capture: &fakeCapture{}}
	player := &fakePlayer{}

	p := New(
		Config{AudioFile: audioFile, Prompt: "You are terse.", MsgLimit: msgLimit},
		trig,
		rec,
		player,
		transcribe.NewClient(srv.Client(), "sk-test", log).WithBaseURL(srv.URL),
		chat.NewClient(srv.Client(), "sk-test", log).WithBaseURL(srv.URL),
		speech.NewOpenAI(srv.Client(), "sk-test", "onyx", log).WithBaseURL(srv.URL),
		nil,
		log,
	)
	return p, trig, rec, player
}

func okHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "turn the lights on"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Sure, doing that now."}}]}`))
	})
	mux.HandleFunc("/v1/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio-bytes"))
	})
	return mux
}

func TestRunCycleAppendsBothTurnsInOrder(t *testing.T) {
	p, trig, rec, player := newMockedPipeline(t, okHandler(t), 4)

	if err := p.runCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	turns := p.History().Turns()
	if len(turns) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(turns))
	}
	if turns[0] != chat.UserTurn("turn the lights on") {
		t.Errorf("unexpected user turn: %+v", turns[0])
	}
	if turns[1] != chat.AssistantTurn("Sure, doing that now.") {
		t.Errorf("unexpected assistant turn: %+v", turns[1])
	}

	if trig.signals != 2 {
		t.Errorf("expected 2 trigger waits, got %d", trig.signals)
	}
	if rec.started != 1 || !rec.capture.stopped {
		t.Errorf("recorder lifecycle wrong: started=%d stopped=%v", rec.started, rec.capture.stopped)
	}
	if len(player.played) != 1 || string(player.played[0]) != "audio-bytes" {
		t.Errorf("unexpected playback: %v", player.played)
	}
}

func TestRunCycleTranscriptionFailureIsFatalAndLeavesHistoryEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	})
	p, _, _, player := newMockedPipeline(t, mux, 4)

	err := p.runCycle(context.Background())
	if err == nil {
		t.Fatal("expected fatal transcription error")
	}
	if !strings.Contains(err.Error(), "transcribing stage failed") {
		t.Errorf("error not attributed to transcribing stage: %v", err)
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), `{"error":"invalid key"}`) {
		t.Errorf("diagnostic missing status or body: %v", err)
	}
	if p.History().Len() != 0 {
		t.Errorf("history mutated on failed cycle: %d turns", p.History().Len())
	}
	if len(player.played) != 0 {
		t.Error("audio played despite failure")
	}
}

func TestRunCycleChatFailureKeepsUserTurnOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "hello"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream down"))
	})
	p, _, _, _ := newMockedPipeline(t, mux, 4)

	err := p.runCycle(context.Background())
	if err == nil {
		t.Fatal("expected fatal chat error")
	}
	if !strings.Contains(err.Error(), "awaiting-reply stage failed") {
		t.Errorf("error not attributed to chat stage: %v", err)
	}
	if p.History().Len() != 1 {
		t.Errorf("expected only the user turn in history, got %d", p.History().Len())
	}
}

func TestRunCycleHonorsHistoryLimitAcrossCycles(t *testing.T) {
	p, _, _, _ := newMockedPipeline(t, okHandler(t), 2)

	for i := 0; i < 3; i++ {
		if err := p.runCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d failed: %v", i, err)
		}
	}

	turns := p.History().Turns()
	if len(turns) != 2 {
		t.Fatalf("history exceeded limit: %d turns", len(turns))
	}
	// The last appended pair survives.
	if turns[0].Role != chat.RoleUser || turns[1].Role != chat.RoleAssistant {
		t.Errorf("unexpected surviving turns: %+v", turns)
	}
}

func TestRunCycleRecordsTranscriptLog(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := sqlite.NewTranscriptStorage(db, logger.Nop())
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	p, _, _, _ := newMockedPipeline(t, okHandler(t), 4)
	p.transcripts = store

	if err := p.runCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	records, err := store.GetRecentTurns(10)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 logged turns, got %d", len(records))
	}
	// Newest first: assistant then user, both from the same cycle.
	if records[0].Role != chat.RoleAssistant || records[1].Role != chat.RoleUser {
		t.Errorf("unexpected logged roles: %q, %q", records[0].Role, records[1].Role)
	}
	if records[0].CycleID == "" || records[0].CycleID != records[1].CycleID {
		t.Errorf("cycle IDs not shared: %q vs %q", records[0].CycleID, records[1].CycleID)
	}
}

func TestStateStrings(t *testing.T) {
	want := map[State]string{
		StateWaitingForTrigger: "waiting-for-trigger",
		StateRecording:         "recording",
		StateTranscribing:      "transcribing",
		StateAwaitingReply:     "awaiting-reply",
		StateSynthesizing:      "synthesizing",
		StatePlaying:           "playing",
	}
	for state, name := range want {
		if state.String() != name {
			t.Errorf("State(%d).String() = %q, want %q", state, state.String(), name)
		}
	}
}
