package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/hiroq/audionotes/internal/embedder"
	"github.com/hiroq/audionotes/internal/model"
	"github.com/hiroq/audionotes/internal/store"
)

func newTestService(t *testing.T, idMode string) (NoteService, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	emb := embedder.NewLocalEmbedder(64)
	return NewNoteService(emb, st, idMode, 0), st
}

func TestNoteService_Add_EmptyText(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)

	_, err := svc.Add(context.Background(), "")
	if !errors.Is(err, ErrTextRequired) {
		t.Errorf("expected ErrTextRequired, got %v", err)
	}
}

func TestNoteService_Add_SequentialIDs(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		note, err := svc.Add(ctx, "note "+strconv.Itoa(i))
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if note.ID != strconv.Itoa(i) {
			t.Errorf("expected id %q, got %q", strconv.Itoa(i), note.ID)
		}
	}
}

func TestNoteService_Add_UUIDMode(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeUUID)
	ctx := context.Background()

	a, err := svc.Add(ctx, "first")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	b, err := svc.Add(ctx, "second")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty ids")
	}
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, both were %q", a.ID)
	}
}

func TestNoteService_Add_UnknownIDMode(t *testing.T) {
	svc, _ := newTestService(t, "bogus")

	_, err := svc.Add(context.Background(), "note")
	if !errors.Is(err, ErrUnknownIDMode) {
		t.Errorf("expected ErrUnknownIDMode, got %v", err)
	}
}

// failingEmbedder は常にエラーを返すEmbedder
type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, embedder.ErrAPIRequestFailed
}

func (f *failingEmbedder) Dimension() int { return 64 }

// 埋め込み失敗時はIDを消費しないこと（次の成功したAddが"1"を得る）
func TestNoteService_Add_EmbedFailureConsumesNoID(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	failing := NewNoteService(&failingEmbedder{}, st, model.IDModeSequential, 0)
	if _, err := failing.Add(ctx, "note"); !errors.Is(err, embedder.ErrAPIRequestFailed) {
		t.Fatalf("expected embed failure, got %v", err)
	}

	working := NewNoteService(embedder.NewLocalEmbedder(64), st, model.IDModeSequential, 0)
	note, err := working.Add(ctx, "note")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if note.ID != "1" {
		t.Errorf("expected id 1 after failed add, got %q", note.ID)
	}
}

// barrierStore は2つの並行Addが両方ともupsert前に件数を読むよう同期させ、
// 連番モードのread-then-write競合を決定的に再現する
type barrierStore struct {
	*store.MemoryStore
	wg sync.WaitGroup
}

func (b *barrierStore) Count(ctx context.Context) (uint64, error) {
	count, err := b.MemoryStore.Count(ctx)
	b.wg.Done()
	b.wg.Wait() // 両方の呼び出しが件数を読むまで待つ
	return count, err
}

// 連番モードは並行Addで同一IDを割り当て得る（既知の制限のリグレッションテスト）
// 両方のAddは成功を返すが、同一IDのupsertは上書きになり1件しか残らない
func TestNoteService_Add_SequentialConcurrentIDCollision(t *testing.T) {
	bs := &barrierStore{MemoryStore: store.NewMemoryStore()}
	bs.wg.Add(2)

	svc := NewNoteService(embedder.NewLocalEmbedder(64), bs, model.IDModeSequential, 0)
	ctx := context.Background()

	var resultWg sync.WaitGroup
	ids := make([]string, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		resultWg.Add(1)
		go func(i int) {
			defer resultWg.Done()
			note, err := svc.Add(ctx, "note "+strconv.Itoa(i))
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = note.ID
		}(i)
	}
	resultWg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}

	if ids[0] != "1" || ids[1] != "1" {
		t.Errorf("expected both writers to get id 1, got %q and %q", ids[0], ids[1])
	}

	count, err := bs.MemoryStore.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 note after collision (overwrite), got %d", count)
	}
}

func TestNoteService_ListOrSearch_EmptyQueryListsWithNilScore(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "remember the milk"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	results, err := svc.ListOrSearch(ctx, "")
	if err != nil {
		t.Fatalf("ListOrSearch failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Text != "remember the milk" {
		t.Errorf("expected note text, got %q", results[0].Text)
	}
	if results[0].Score != nil {
		t.Errorf("expected nil score on list, got %v", *results[0].Score)
	}
}

func TestNoteService_ListOrSearch_EmptyStore(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)

	results, err := svc.ListOrSearch(context.Background(), "")
	if err != nil {
		t.Fatalf("ListOrSearch failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestNoteService_ListOrSearch_QueryRanksRelatedFirst(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)
	ctx := context.Background()

	for _, text := range []string{"buy cat food", "walk the dog", "quarterly report meeting"} {
		if _, err := svc.Add(ctx, text); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	results, err := svc.ListOrSearch(ctx, "cat food for the dog")
	if err != nil {
		t.Fatalf("ListOrSearch failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// 単語が重なるノートが無関係なノートより上位
	if results[2].Text != "quarterly report meeting" {
		t.Errorf("expected unrelated note last, got order %q, %q, %q",
			results[0].Text, results[1].Text, results[2].Text)
	}

	for i, r := range results {
		if r.Score == nil {
			t.Errorf("result %d: expected non-nil score on search", i)
		}
	}
}

func TestNoteService_ListOrSearch_LimitTen(t *testing.T) {
	svc, _ := newTestService(t, model.IDModeSequential)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		if _, err := svc.Add(ctx, "note "+strconv.Itoa(i)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	listed, err := svc.ListOrSearch(ctx, "")
	if err != nil {
		t.Fatalf("ListOrSearch failed: %v", err)
	}
	if len(listed) != model.DefaultListLimit {
		t.Errorf("expected %d listed results, got %d", model.DefaultListLimit, len(listed))
	}

	searched, err := svc.ListOrSearch(ctx, "note")
	if err != nil {
		t.Fatalf("ListOrSearch failed: %v", err)
	}
	if len(searched) != model.DefaultListLimit {
		t.Errorf("expected %d search results, got %d", model.DefaultListLimit, len(searched))
	}
}
