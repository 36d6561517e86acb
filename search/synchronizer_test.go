package search_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tonotes/model"
	"tonotes/search"
	"tonotes/search/mocks"

	"go.uber.org/mock/gomock"
)

func newSynchronizer(ctrl *gomock.Controller, batch int) (*search.Synchronizer, *mocks.MockIndex, *mocks.MockRecordStore, *search.MemoryStaleTracker, *search.MemoryCheckpoint) {
	index := mocks.NewMockIndex(ctrl)
	records := mocks.NewMockRecordStore(ctrl)
	stale := search.NewMemoryStaleTracker()
	checkpoint := search.NewMemoryCheckpoint()
	sync := search.NewSynchronizer(index, records, stale, checkpoint, search.SyncConfig{
		Timeout:   time.Second,
		BatchSize: batch,
	})
	return sync, index, records, stale, checkpoint
}

func TestSynchronizer_OnNoteCreated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, _, stale, _ := newSynchronizer(ctrl, 10)
	note := testNote("n1", "u1", "Alpha Report", "body")

	index.EXPECT().IndexDocument(gomock.Any(), model.NewSearchDocument(note), true).Return(nil)

	sync.OnNoteCreated(context.Background(), note)

	ids, _ := stale.StaleIDs(context.Background())
	if len(ids) != 0 {
		t.Errorf("stale ids = %v, want none", ids)
	}
}

func TestSynchronizer_FailureIsNonFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, _, stale, _ := newSynchronizer(ctrl, 10)
	note := testNote("n1", "u1", "Alpha", "body")

	index.EXPECT().IndexDocument(gomock.Any(), gomock.Any(), true).Return(errors.New("engine down"))
	index.EXPECT().DeleteDocument(gomock.Any(), "n2", true).Return(errors.New("engine down"))

	sync.OnNoteCreated(context.Background(), note)
	sync.OnNoteDeleted(context.Background(), "n2")

	ids, _ := stale.StaleIDs(context.Background())
	if !reflect.DeepEqual(ids, []string{"n1", "n2"}) {
		t.Errorf("stale ids = %v, want [n1 n2]", ids)
	}
}

func TestSynchronizer_IgnoresCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, _, _, _ := newSynchronizer(ctrl, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	index.EXPECT().
		DeleteDocument(gomock.Any(), "n1", true).
		DoAndReturn(func(ctx context.Context, _ string, _ bool) error {
			return ctx.Err()
		})

	sync.OnNoteDeleted(ctx, "n1")
}

func TestSynchronizer_OnNoteUpdated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, _, _, _ := newSynchronizer(ctrl, 10)
	note := testNote("n1", "u1", "Alpha", "body")
	note.IsPinned = true
	doc := model.NewSearchDocument(note)

	tests := []struct {
		name      string
		changed   []string
		mockSetup func()
	}{
		{
			name:    "partial update always carries updatedAt",
			changed: []string{model.FieldIsPinned},
			mockSetup: func() {
				index.EXPECT().
					UpdateDocument(gomock.Any(), doc, []string{"isPinned", "updatedAt"}, true).
					Return(nil)
			},
		},
		{
			name:    "unknown fields are ignored",
			changed: []string{model.FieldTitle, "archived", model.FieldUpdatedAt},
			mockSetup: func() {
				index.EXPECT().
					UpdateDocument(gomock.Any(), doc, []string{"title", "updatedAt"}, true).
					Return(nil)
			},
		},
		{
			name:    "no changed fields reindexes the whole note",
			changed: nil,
			mockSetup: func() {
				index.EXPECT().IndexDocument(gomock.Any(), doc, true).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			sync.OnNoteUpdated(context.Background(), note, tt.changed)
		})
	}
}

func TestSynchronizer_Resync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, records, _, checkpoint := newSynchronizer(ctrl, 2)
	a, b, c := testNote("a", "u1", "A", "a"), testNote("b", "u1", "B", "b"), testNote("c", "u2", "C", "c")

	gomock.InOrder(
		records.EXPECT().ListAfter(gomock.Any(), "", 2).Return([]*model.Note{a, b}, nil),
		index.EXPECT().BulkIndex(gomock.Any(), []model.SearchDocument{model.NewSearchDocument(a), model.NewSearchDocument(b)}).Return(nil),
		records.EXPECT().ListAfter(gomock.Any(), "b", 2).Return([]*model.Note{c}, nil),
		index.EXPECT().BulkIndex(gomock.Any(), []model.SearchDocument{model.NewSearchDocument(c)}).Return(nil),
		// "zombie" is indexed but was deleted from the record store
		index.EXPECT().DocumentIDsAfter(gomock.Any(), "", 2).Return([]string{"a", "b"}, nil),
		records.EXPECT().FindManyByIDs(gomock.Any(), []string{"a", "b"}).Return([]*model.NoteRecord{testRecord(a), testRecord(b)}, nil),
		index.EXPECT().DocumentIDsAfter(gomock.Any(), "b", 2).Return([]string{"c", "zombie"}, nil),
		records.EXPECT().FindManyByIDs(gomock.Any(), []string{"c", "zombie"}).Return([]*model.NoteRecord{testRecord(c)}, nil),
		index.EXPECT().DeleteDocument(gomock.Any(), "zombie", false).Return(nil),
		index.EXPECT().DocumentIDsAfter(gomock.Any(), "zombie", 2).Return(nil, nil),
		index.EXPECT().Refresh(gomock.Any()).Return(nil),
	)

	n, err := sync.Resync(context.Background(), search.ResyncOptions{})
	if err != nil {
		t.Fatalf("Resync() unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Resync() = %d, want 3", n)
	}
	if last, _ := checkpoint.Load(context.Background()); last != "" {
		t.Errorf("checkpoint should be cleared after a full run, got %q", last)
	}
}

func TestSynchronizer_ResyncResumesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, records, _, checkpoint := newSynchronizer(ctrl, 2)
	a, b, c := testNote("a", "u1", "A", "a"), testNote("b", "u1", "B", "b"), testNote("c", "u2", "C", "c")

	gomock.InOrder(
		records.EXPECT().ListAfter(gomock.Any(), "", 2).Return([]*model.Note{a, b}, nil),
		index.EXPECT().BulkIndex(gomock.Any(), gomock.Any()).Return(nil),
		records.EXPECT().ListAfter(gomock.Any(), "b", 2).Return([]*model.Note{c}, nil),
		index.EXPECT().BulkIndex(gomock.Any(), gomock.Any()).Return(errors.New("engine down")),
	)

	n, err := sync.Resync(context.Background(), search.ResyncOptions{})
	if err == nil {
		t.Fatal("Resync() expected error")
	}
	if n != 2 {
		t.Errorf("Resync() = %d before failing, want 2", n)
	}
	if last, _ := checkpoint.Load(context.Background()); last != "b" {
		t.Fatalf("checkpoint = %q, want b", last)
	}

	gomock.InOrder(
		records.EXPECT().ListAfter(gomock.Any(), "b", 2).Return([]*model.Note{c}, nil),
		index.EXPECT().BulkIndex(gomock.Any(), []model.SearchDocument{model.NewSearchDocument(c)}).Return(nil),
		index.EXPECT().DocumentIDsAfter(gomock.Any(), "", 2).Return(nil, nil),
		index.EXPECT().Refresh(gomock.Any()).Return(nil),
	)

	n, err = sync.Resync(context.Background(), search.ResyncOptions{Resume: true})
	if err != nil {
		t.Fatalf("resumed Resync() unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("resumed Resync() = %d, want 1", n)
	}
}

func TestSynchronizer_RepairStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, records, stale, _ := newSynchronizer(ctrl, 10)
	ctx := context.Background()
	_ = stale.MarkStale(ctx, "alive", "gone", "flaky")

	alive := testNote("alive", "u1", "Alive", "body")
	records.EXPECT().FindByID(gomock.Any(), "alive").Return(alive, nil)
	records.EXPECT().FindByID(gomock.Any(), "flaky").Return(testNote("flaky", "u1", "F", "f"), nil)
	records.EXPECT().FindByID(gomock.Any(), "gone").Return(nil, model.ErrNoteNotFound)

	index.EXPECT().IndexDocument(gomock.Any(), model.NewSearchDocument(alive), false).Return(nil)
	index.EXPECT().IndexDocument(gomock.Any(), gomock.Any(), false).Return(errors.New("engine down"))
	index.EXPECT().DeleteDocument(gomock.Any(), "gone", false).Return(nil)

	n, err := sync.RepairStale(ctx)
	if err != nil {
		t.Fatalf("RepairStale() unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("RepairStale() = %d, want 2", n)
	}
	ids, _ := stale.StaleIDs(ctx)
	if !reflect.DeepEqual(ids, []string{"flaky"}) {
		t.Errorf("stale ids = %v, want [flaky]", ids)
	}
}

func TestSynchronizer_PruneOrphansStopsOnDeleteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sync, index, records, _, _ := newSynchronizer(ctrl, 10)

	index.EXPECT().DocumentIDsAfter(gomock.Any(), "", 10).Return([]string{"gone"}, nil)
	records.EXPECT().FindManyByIDs(gomock.Any(), []string{"gone"}).Return([]*model.NoteRecord{}, nil)
	index.EXPECT().DeleteDocument(gomock.Any(), "gone", false).Return(errors.New("engine down"))

	n, err := sync.PruneOrphans(context.Background())
	if err == nil {
		t.Fatal("PruneOrphans() expected error")
	}
	if n != 0 {
		t.Errorf("PruneOrphans() = %d, want 0", n)
	}
}
