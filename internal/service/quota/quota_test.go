package quota

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/walter2161/grupo-de-agentes/internal/model"
	"github.com/walter2161/grupo-de-agentes/internal/storage"
)

type fixedUser string

func (u fixedUser) UserID() string { return string(u) }

func newTracker(t *testing.T, loc *time.Location, maxDaily int) *Tracker {
	t.Helper()
	reg := storage.NewRegistry(storage.NewLocalBackend(storage.NewStore(storage.NewMemoryKV(0))))
	h := storage.Open(reg, fixedUser("u1"), storage.InteractionsKey(), []model.AgentInteraction{})
	return NewTracker(h, loc, maxDaily)
}

func TestValidateMessageLength(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		max   int
		valid bool
	}{
		{"normal", "Oi", 10, true},
		{"empty", "", 10, false},
		{"whitespace", "  \n\t ", 10, false},
		{"at limit", strings.Repeat("a", 10), 10, true},
		{"over limit", strings.Repeat("a", 11), 10, false},
		{"multibyte counted as runes", strings.Repeat("ç", 10), 10, true},
		{"no limit", strings.Repeat("a", 5000), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateMessageLength(tt.text, tt.max)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if !got.Valid && got.Message == "" {
				t.Error("invalid result should carry a message")
			}
		})
	}
}

func TestRecordInteractionCreatesZeroedRow(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, time.UTC, 0)
	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	if err := tr.RecordInteraction(ctx, "leo-dev", ts); err != nil {
		t.Fatal(err)
	}
	row, ok := tr.Get(ctx, "leo-dev")
	if !ok {
		t.Fatal("row not created")
	}
	if row.MessagesToday != 0 || row.RandomQuestionsSent != 0 || row.LastRandomQuestion != nil || row.LastSelfMessage != nil {
		t.Errorf("row = %+v, want zero counters", row)
	}
	if !row.LastInteraction.Equal(ts) {
		t.Errorf("LastInteraction = %v, want %v", row.LastInteraction, ts)
	}
}

func TestRecordMessageCalendarDay(t *testing.T) {
	ctx := context.Background()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	tr := newTracker(t, loc, 2)

	// 23:00 与 23:30 同一天（圣保罗时间）
	evening := time.Date(2024, 3, 10, 23, 0, 0, 0, loc)
	for _, ts := range []time.Time{evening, evening.Add(30 * time.Minute)} {
		if err := tr.RecordMessage(ctx, "ana-financas", ts); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.MessagesToday(ctx, "ana-financas", evening.Add(45*time.Minute)); got != 2 {
		t.Errorf("MessagesToday = %d, want 2", got)
	}
	if tr.Allow(ctx, "ana-financas", evening.Add(45*time.Minute)) {
		t.Error("daily limit reached, Allow should be false")
	}

	// 不到 24 小时，但已跨自然日
	nextDay := time.Date(2024, 3, 11, 0, 10, 0, 0, loc)
	if !tr.Allow(ctx, "ana-financas", nextDay) {
		t.Error("new calendar day should allow messages")
	}
	if err := tr.RecordMessage(ctx, "ana-financas", nextDay); err != nil {
		t.Fatal(err)
	}
	if got := tr.MessagesToday(ctx, "ana-financas", nextDay); got != 1 {
		t.Errorf("MessagesToday after reset = %d, want 1", got)
	}
}

func TestRecordRandomQuestionAndSelfMessage(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, time.UTC, 0)
	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	if err := tr.RecordRandomQuestion(ctx, "dr-silva", ts); err != nil {
		t.Fatal(err)
	}
	if err := tr.RecordSelfMessage(ctx, "dr-silva", ts.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	row, _ := tr.Get(ctx, "dr-silva")
	if row.RandomQuestionsSent != 1 {
		t.Errorf("RandomQuestionsSent = %d", row.RandomQuestionsSent)
	}
	if row.LastRandomQuestion == nil || !row.LastRandomQuestion.Equal(ts) {
		t.Errorf("LastRandomQuestion = %v", row.LastRandomQuestion)
	}
	if row.LastSelfMessage == nil || !row.LastSelfMessage.Equal(ts.Add(time.Minute)) {
		t.Errorf("LastSelfMessage = %v", row.LastSelfMessage)
	}
	if len(tr.List(ctx)) != 1 {
		t.Errorf("List() = %d rows, want 1", len(tr.List(ctx)))
	}
}
