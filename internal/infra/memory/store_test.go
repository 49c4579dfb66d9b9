package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"formrank-service/internal/domain"
)

func TestRecordSubmissionEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)

	form := domain.Form{Title: "F", Deadline: now.Add(time.Hour), CreatedAt: now}
	if err := store.CreateForm(ctx, &form); err != nil {
		t.Fatalf("create form: %v", err)
	}
	p := domain.Participant{Name: "Alice", Email: "alice@example.com", RegisteredAt: now}
	if err := store.CreateParticipant(ctx, &p); err != nil {
		t.Fatalf("create participant: %v", err)
	}

	// Concurrent duplicate submissions: exactly one must win.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env := domain.ResponseEnvelope{FormID: form.ID, ParticipantID: p.ID, SubmittedAt: now, Points: 150}
			errs[i] = store.RecordSubmission(ctx, &env, nil)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrDuplicateSubmission):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one envelope, got %d", winners)
	}

	got, err := store.FindParticipantByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.TotalScore != 150 || got.TotalForms != 1 {
		t.Fatalf("totals must match the single envelope, got %+v", got)
	}
}

func TestCreateParticipantRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now()

	first := domain.Participant{Name: "Alice", Email: "alice@example.com", RegisteredAt: now}
	if err := store.CreateParticipant(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := domain.Participant{Name: "Impostor", Email: "alice@example.com", RegisteredAt: now}
	if err := store.CreateParticipant(ctx, &second); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}
