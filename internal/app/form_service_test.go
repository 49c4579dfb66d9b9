package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"formrank-service/internal/app"
	"formrank-service/internal/domain"
	"formrank-service/internal/infra/memory"
)

func TestActivationTimestampIsSetOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Onboarding", "", t0.Add(72*time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := forms.Activate(ctx, form.ID, t0); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := forms.Deactivate(ctx, form.ID, t0.Add(time.Hour)); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := forms.Activate(ctx, form.ID, t0.Add(24*time.Hour)); err != nil {
		t.Fatalf("reactivate: %v", err)
	}

	got, err := store.GetForm(ctx, form.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ActivatedAt == nil || !got.ActivatedAt.Equal(t0) {
		t.Fatalf("reactivation must not reset the scoring clock, got %v", got.ActivatedAt)
	}
	if !got.Active {
		t.Fatalf("form should be active again")
	}
}

func TestPublicFormHidesClosedForms(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Short-lived", "", t0.Add(time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := forms.Activate(ctx, form.ID, t0); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if _, err := forms.PublicForm(ctx, form.ID, t0.Add(time.Minute)); err != nil {
		t.Fatalf("open form should be visible: %v", err)
	}
	if _, err := forms.PublicForm(ctx, form.ID, t0.Add(2*time.Hour)); !errors.Is(err, domain.ErrFormUnavailable) {
		t.Fatalf("expected unavailable past the deadline, got %v", err)
	}
}

func TestAddQuestionRejectsDuplicateOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Survey", "", t0.Add(time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "How are you?", Type: domain.QuestionFreeText, Order: 1, Required: true}); err != nil {
		t.Fatalf("add question: %v", err)
	}
	_, err = forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "Rate us", Type: domain.QuestionScale5, Order: 1})
	if !errors.Is(err, domain.ErrOrderTaken) {
		t.Fatalf("expected order conflict, got %v", err)
	}
}

func TestAddQuestionValidatesOptions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Survey", "", t0.Add(time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "Pick one", Type: domain.QuestionMultipleChoice, Order: 1, Options: []string{"only"}})
	if err == nil {
		t.Fatalf("expected rejection of single-option multiple choice")
	}
	_, err = forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "Free", Type: domain.QuestionFreeText, Order: 1, Options: []string{"stray"}})
	if err == nil {
		t.Fatalf("expected rejection of options on non-choice question")
	}
}

func TestReorderQuestionSwaps(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Survey", "", t0.Add(time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	q1, err := forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "First", Type: domain.QuestionFreeText, Order: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	q2, err := forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "Second", Type: domain.QuestionFreeText, Order: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := forms.ReorderQuestion(ctx, q2.ID, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	questions, err := store.ListQuestions(ctx, form.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != q2.ID || questions[1].ID != q1.ID {
		t.Fatalf("expected swap, got %+v", questions)
	}
}

func TestDeleteFormCascadesQuestions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	forms := app.NewFormService(store, store)

	form, err := forms.CreateForm(ctx, "Doomed", "", t0.Add(time.Hour), 1, t0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	q, err := forms.AddQuestion(ctx, domain.Question{FormID: form.ID, Title: "Q", Type: domain.QuestionFreeText, Order: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := forms.DeleteForm(ctx, form.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetQuestion(ctx, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected cascade delete of questions, got %v", err)
	}
}
