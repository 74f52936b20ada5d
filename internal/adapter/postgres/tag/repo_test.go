package tag_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/tag"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/testhelper"
	"github.com/rentstack/assettrack-backend/internal/domain"
)

// newRepo sets up a test DB and returns a ready Repo + pool.
func newRepo(t *testing.T) (*tag.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return tag.New(pool), pool
}

// uniqueEPC returns a unique uppercase hex EPC.
func uniqueEPC() string {
	return "E280" + uuid.New().String()[:8]
}

// seedDetection inserts a detection row for the tag.
func seedDetection(t *testing.T, pool *pgxpool.Pool, tagID uuid.UUID, at time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO rfid_detections (id, tag_id, reader_id, detected_at) VALUES ($1, $2, 'dock-1', $3)`,
		uuid.New(), tagID, at,
	)
	if err != nil {
		t.Fatalf("seedDetection: %v", err)
	}
}

func assertIsDomainError(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected error %v, got %v", want, err)
	}
}

// ---------------------------------------------------------------------------
// Create tests
// ---------------------------------------------------------------------------

func TestRepo_Create_HappyPath(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	tid := "E2003412"
	newTag := domain.RFIDTag{
		ID:     uuid.New(),
		EPC:    uniqueEPC(),
		TID:    &tid,
		Status: domain.TagStatusUnassigned,
	}

	got, err := repo.Create(ctx, &newTag)
	if err != nil {
		t.Fatalf("Create: unexpected error: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	fetched, err := repo.GetByEPC(ctx, newTag.EPC)
	if err != nil {
		t.Fatalf("GetByEPC: %v", err)
	}
	if fetched.ID != newTag.ID {
		t.Errorf("ID mismatch: got %s, want %s", fetched.ID, newTag.ID)
	}
	if fetched.TID == nil || *fetched.TID != tid {
		t.Errorf("TID mismatch: got %v, want %q", fetched.TID, tid)
	}
}

func TestRepo_Create_DuplicateEPC(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool)

	dup := domain.RFIDTag{
		ID:     uuid.New(),
		EPC:    seeded.EPC,
		Status: domain.TagStatusUnassigned,
	}
	_, err := repo.Create(ctx, &dup)
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

// ---------------------------------------------------------------------------
// UpsertDetected tests
// ---------------------------------------------------------------------------

func TestRepo_UpsertDetected_CreatesUnknown(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	epc := uniqueEPC()
	seenAt := time.Now().UTC().Truncate(time.Microsecond)

	got, err := repo.UpsertDetected(ctx, epc, seenAt)
	if err != nil {
		t.Fatalf("UpsertDetected: unexpected error: %v", err)
	}

	if got.Status != domain.TagStatusUnknown {
		t.Errorf("Status mismatch: got %s, want UNKNOWN", got.Status)
	}
	if got.FirstSeenAt == nil || !got.FirstSeenAt.Equal(seenAt) {
		t.Errorf("FirstSeenAt mismatch: got %v, want %v", got.FirstSeenAt, seenAt)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(seenAt) {
		t.Errorf("LastSeenAt mismatch: got %v, want %v", got.LastSeenAt, seenAt)
	}
}

func TestRepo_UpsertDetected_AdvancesWindow(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	epc := uniqueEPC()
	first := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	later := first.Add(30 * time.Minute)

	if _, err := repo.UpsertDetected(ctx, epc, first); err != nil {
		t.Fatalf("UpsertDetected first: %v", err)
	}

	got, err := repo.UpsertDetected(ctx, epc, later)
	if err != nil {
		t.Fatalf("UpsertDetected later: %v", err)
	}

	if got.FirstSeenAt == nil || !got.FirstSeenAt.Equal(first) {
		t.Errorf("FirstSeenAt mismatch: got %v, want %v", got.FirstSeenAt, first)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(later) {
		t.Errorf("LastSeenAt mismatch: got %v, want %v", got.LastSeenAt, later)
	}
}

// Out-of-order delivery must not regress the sighting window.
func TestRepo_UpsertDetected_OutOfOrder(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	epc := uniqueEPC()
	recent := time.Now().UTC().Truncate(time.Microsecond)
	stale := recent.Add(-2 * time.Hour)

	if _, err := repo.UpsertDetected(ctx, epc, recent); err != nil {
		t.Fatalf("UpsertDetected recent: %v", err)
	}

	got, err := repo.UpsertDetected(ctx, epc, stale)
	if err != nil {
		t.Fatalf("UpsertDetected stale: %v", err)
	}

	if got.FirstSeenAt == nil || !got.FirstSeenAt.Equal(stale) {
		t.Errorf("FirstSeenAt should move back to %v, got %v", stale, got.FirstSeenAt)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(recent) {
		t.Errorf("LastSeenAt should stay at %v, got %v", recent, got.LastSeenAt)
	}
}

func TestRepo_UpsertDetected_PreservesEnrollment(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	seeded := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.Status = domain.TagStatusEnrolled
		tg.InventoryItemID = &it.ID
		tg.EverEnrolled = true
	})

	got, err := repo.UpsertDetected(ctx, seeded.EPC, time.Now().UTC())
	if err != nil {
		t.Fatalf("UpsertDetected: %v", err)
	}

	if got.Status != domain.TagStatusEnrolled {
		t.Errorf("Status mismatch: got %s, want ENROLLED", got.Status)
	}
	if got.InventoryItemID == nil || *got.InventoryItemID != it.ID {
		t.Errorf("InventoryItemID mismatch: got %v, want %s", got.InventoryItemID, it.ID)
	}
}

// ---------------------------------------------------------------------------
// Promote tests
// ---------------------------------------------------------------------------

func TestRepo_Promote_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.Status = domain.TagStatusUnknown
	})

	tid := "E2003412012345"
	if err := repo.Promote(ctx, seeded.ID, &tid); err != nil {
		t.Fatalf("Promote: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.TagStatusUnassigned {
		t.Errorf("Status mismatch: got %s, want UNASSIGNED", got.Status)
	}
	if got.TID == nil || *got.TID != tid {
		t.Errorf("TID mismatch: got %v, want %q", got.TID, tid)
	}
}

func TestRepo_Promote_NotUnknown(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool) // UNASSIGNED

	err := repo.Promote(ctx, seeded.ID, nil)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Link tests
// ---------------------------------------------------------------------------

func TestRepo_SetLink_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	seeded := testhelper.SeedTag(t, pool)

	if err := repo.SetLink(ctx, seeded.ID, it.ID); err != nil {
		t.Fatalf("SetLink: unexpected error: %v", err)
	}

	got, err := repo.GetByItemID(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetByItemID: %v", err)
	}
	if got.ID != seeded.ID {
		t.Errorf("tag mismatch: got %s, want %s", got.ID, seeded.ID)
	}
	if got.Status != domain.TagStatusEnrolled {
		t.Errorf("Status mismatch: got %s, want ENROLLED", got.Status)
	}
	if !got.EverEnrolled {
		t.Error("expected ever_enrolled to be set")
	}
}

// The partial unique index rejects a second tag on the same item, which is
// the backstop behind concurrent enroll calls.
func TestRepo_SetLink_ItemAlreadyTagged(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	first := testhelper.SeedTag(t, pool)
	second := testhelper.SeedTag(t, pool)

	if err := repo.SetLink(ctx, first.ID, it.ID); err != nil {
		t.Fatalf("SetLink first: %v", err)
	}

	err := repo.SetLink(ctx, second.ID, it.ID)
	assertIsDomainError(t, err, domain.ErrAlreadyExists)
}

// Two enrollments racing for the same item must resolve to exactly one
// winner; the loser hits the partial unique index.
func TestRepo_SetLink_ConcurrentEnrolls(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	first := testhelper.SeedTag(t, pool)
	second := testhelper.SeedTag(t, pool)

	start := make(chan struct{})
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i, tagID := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = repo.SetLink(ctx, tagID, it.ID)
		}()
	}
	close(start)
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrAlreadyExists):
			lost++
		default:
			t.Fatalf("unexpected error from racing SetLink: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d winners, %d losers", won, lost)
	}

	got, err := repo.GetByItemID(ctx, it.ID)
	if err != nil {
		t.Fatalf("GetByItemID: %v", err)
	}
	if got.ID != first.ID && got.ID != second.ID {
		t.Errorf("linked tag %s is neither contender", got.ID)
	}
}

// N concurrent detections of the same EPC must collapse into a single tag row
// while every detection row lands.
func TestRepo_UpsertDetected_Concurrent(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	const workers = 8
	epc := uniqueEPC()
	base := time.Now().UTC().Truncate(time.Microsecond)

	start := make(chan struct{})
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			seenAt := base.Add(time.Duration(i) * time.Second)
			got, err := repo.UpsertDetected(ctx, epc, seenAt)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = got.ID
			_, errs[i] = pool.Exec(ctx,
				`INSERT INTO rfid_detections (id, tag_id, reader_id, detected_at) VALUES ($1, $2, 'dock-1', $3)`,
				uuid.New(), got.ID, seenAt,
			)
		}()
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("UpsertDetected worker %d: %v", i, err)
		}
	}
	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("workers resolved to different tag rows: %s vs %s", ids[0], id)
		}
	}

	var tagRows, detectionRows int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM rfid_tags WHERE epc = $1`, epc).Scan(&tagRows); err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM rfid_detections WHERE tag_id = $1`, ids[0]).Scan(&detectionRows); err != nil {
		t.Fatalf("count detections: %v", err)
	}
	if tagRows != 1 {
		t.Errorf("expected a single tag row for %s, got %d", epc, tagRows)
	}
	if detectionRows != workers {
		t.Errorf("expected %d detection rows, got %d", workers, detectionRows)
	}
}

func TestRepo_ClearLink_HappyPath(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	it := testhelper.SeedItem(t, pool)
	seeded := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.Status = domain.TagStatusEnrolled
		tg.InventoryItemID = &it.ID
		tg.EverEnrolled = true
	})

	if err := repo.ClearLink(ctx, seeded.ID); err != nil {
		t.Fatalf("ClearLink: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.TagStatusUnassigned {
		t.Errorf("Status mismatch: got %s, want UNASSIGNED", got.Status)
	}
	if got.InventoryItemID != nil {
		t.Errorf("expected link to be cleared, got %v", got.InventoryItemID)
	}
	if !got.EverEnrolled {
		t.Error("ever_enrolled must survive unenrollment")
	}

	_, err = repo.GetByItemID(ctx, it.ID)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_ClearLinkByItem_NoTagIsNoop(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)

	it := testhelper.SeedItem(t, pool)

	if err := repo.ClearLinkByItem(context.Background(), it.ID); err != nil {
		t.Fatalf("ClearLinkByItem: unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListUnknown tests
// ---------------------------------------------------------------------------

func TestRepo_ListUnknown(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	unknown := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.Status = domain.TagStatusUnknown
	})
	neverEnrolled := testhelper.SeedTag(t, pool) // UNASSIGNED, ever_enrolled=false
	formerlyEnrolled := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.EverEnrolled = true
	})

	tags, err := repo.ListUnknown(ctx)
	if err != nil {
		t.Fatalf("ListUnknown: %v", err)
	}

	byID := make(map[uuid.UUID]bool, len(tags))
	for _, tg := range tags {
		byID[tg.ID] = true
	}
	if !byID[unknown.ID] {
		t.Error("expected UNKNOWN tag in result")
	}
	if !byID[neverEnrolled.ID] {
		t.Error("expected never-enrolled UNASSIGNED tag in result")
	}
	if byID[formerlyEnrolled.ID] {
		t.Error("formerly enrolled tag must not appear in unknown list")
	}
}

// ---------------------------------------------------------------------------
// List tests
// ---------------------------------------------------------------------------

func TestRepo_List_SearchByEPC(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool)
	search := seeded.EPC

	tags, total, err := repo.List(ctx, domain.TagFilter{Search: &search})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Errorf("total mismatch: got %d, want 1", total)
	}
	if len(tags) != 1 || tags[0].ID != seeded.ID {
		t.Fatalf("expected the seeded tag, got %d tags", len(tags))
	}
}

func TestRepo_List_FilterByStatus(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool, func(tg *domain.RFIDTag) {
		tg.Status = domain.TagStatusUnknown
	})

	status := domain.TagStatusUnknown
	tags, _, err := repo.List(ctx, domain.TagFilter{Status: &status})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	found := false
	for _, tg := range tags {
		if tg.Status != domain.TagStatusUnknown {
			t.Errorf("unexpected status in result: %s", tg.Status)
		}
		if tg.ID == seeded.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected seeded UNKNOWN tag in result")
	}
}

// ---------------------------------------------------------------------------
// Delete tests
// ---------------------------------------------------------------------------

func TestRepo_Delete_CascadesDetections(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool)
	seedDetection(t, pool, seeded.ID, time.Now().UTC())
	seedDetection(t, pool, seeded.ID, time.Now().UTC().Add(-time.Minute))

	if err := repo.Delete(ctx, seeded.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}

	var count int
	err := pool.QueryRow(ctx, `SELECT count(*) FROM rfid_detections WHERE tag_id = $1`, seeded.ID).Scan(&count)
	if err != nil {
		t.Fatalf("count detections: %v", err)
	}
	if count != 0 {
		t.Errorf("expected detections to cascade, %d rows remain", count)
	}
}

func TestRepo_Delete_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.Delete(context.Background(), uuid.New())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// DetectionCount tests
// ---------------------------------------------------------------------------

func TestRepo_GetByID_DetectionCount(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	seeded := testhelper.SeedTag(t, pool)
	seedDetection(t, pool, seeded.ID, time.Now().UTC())
	seedDetection(t, pool, seeded.ID, time.Now().UTC().Add(-time.Minute))
	seedDetection(t, pool, seeded.ID, time.Now().UTC().Add(-2*time.Minute))

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.DetectionCount != 3 {
		t.Errorf("DetectionCount mismatch: got %d, want 3", got.DetectionCount)
	}
}
