package sharechain

import (
	"testing"

	"github.com/p2pool-go/sharechain/chainhash"
)

type fakeShare struct {
	hash      chainhash.Hash
	height    uint32
	prev      chainhash.Hash
	valid     bool
	timestamp uint64
	work      uint64
	minWork   uint64
}

func share(label string, height uint32, prevLabel string) *fakeShare {
	var prev chainhash.Hash
	if prevLabel != "" {
		prev = chainhash.Sum256([]byte(prevLabel))
	}
	return &fakeShare{
		hash:   chainhash.Sum256([]byte(label)),
		height: height,
		prev:   prev,
		valid:  true,
	}
}

func (s *fakeShare) Hash() chainhash.Hash                   { return s.hash }
func (s *fakeShare) AbsHeight() uint32                      { return s.height }
func (s *fakeShare) PreviousShareHash() chainhash.Hash      { return s.prev }
func (s *fakeShare) NewTransactionHashes() []chainhash.Hash { return nil }
func (s *fakeShare) Timestamp() uint64                      { return s.timestamp }
func (s *fakeShare) Work() uint64                           { return s.work }
func (s *fakeShare) MinWork() uint64                        { return s.minWork }
func (s *fakeShare) Validity() bool                         { return s.valid }
func (s *fakeShare) Version() uint64                        { return 1 }

func TestAppendLinearChain(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	b := share("b", 101, "a")
	c := share("c", 102, "b")

	if !store.Append(a) {
		t.Fatal("expected first share accepted")
	}
	if !store.Append(b) {
		t.Fatal("expected second share accepted")
	}
	if !store.Append(c) {
		t.Fatal("expected third share accepted")
	}
	if store.Newest().Hash() != c.Hash() {
		t.Fatalf("expected newest = c, got %s", store.Newest().Hash())
	}
	if store.Oldest().Hash() != a.Hash() {
		t.Fatalf("expected oldest = a, got %s", store.Oldest().Hash())
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	a.valid = false
	if store.Append(a) {
		t.Fatal("expected invalid share rejected")
	}
	if store.Newest() != nil {
		t.Fatal("expected no newest set")
	}
}

func TestAppendRejectsDuplicate(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	if !store.Append(a) {
		t.Fatal("expected first append accepted")
	}
	if store.Append(a) {
		t.Fatal("expected duplicate rejected")
	}
}

func TestAppendGapAboveNewest(t *testing.T) {
	store := NewChainStore()
	var gapsSeen []Gap
	store.Subscribe(func(n *Notification) {
		if n.Type == NTGapsFound {
			gapsSeen = append(gapsSeen, n.Data.([]Gap)...)
		}
	})

	a := share("a", 100, "")
	store.Append(a)
	c := share("c", 102, "b") // skips height 101 entirely
	store.Append(c)

	if len(gapsSeen) != 1 {
		t.Fatalf("expected one gap notification, got %d", len(gapsSeen))
	}
	if gapsSeen[0].Length != 1 || gapsSeen[0].DescendentHeight != 102 {
		t.Fatalf("unexpected gap: %+v", gapsSeen[0])
	}
}

func TestAppendOrphanDetection(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)

	var orphans []Share
	store.Subscribe(func(n *Notification) {
		if n.Type == NTOrphansFound {
			orphans = append(orphans, n.Data.([]Share)...)
		}
	})

	bOrphan := share("b-orphan", 101, "wrong-parent")
	store.Append(bOrphan)

	bMain := share("b-main", 101, "a")
	store.Append(bMain)

	// The child at 102 names b-main as its parent, which settles which
	// of the two siblings at 101 is on the main chain.
	child := share("c", 102, "b-main")
	store.Append(child)

	list := store.AtHeight(101)
	if len(list) != 2 || list[0].Hash() != bMain.Hash() {
		t.Fatalf("expected bMain promoted to index 0, got %+v", list)
	}
	if len(orphans) != 1 || orphans[0].Hash() != bOrphan.Hash() {
		t.Fatalf("expected bOrphan reported as orphan, got %+v", orphans)
	}
}

func TestAppendCandidateArrivedOnSibling(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	b := share("b", 101, "a")
	store.Append(b)

	var candidates int
	store.Subscribe(func(n *Notification) {
		if n.Type == NTCandidateArrived {
			candidates++
		}
	})
	sibling := share("b-sibling", 101, "a")
	if !store.Append(sibling) {
		t.Fatal("expected sibling accepted as candidate")
	}
	if candidates != 1 {
		t.Fatalf("expected one candidateArrived, got %d", candidates)
	}
}

func TestAppendDeadShareWithNoDescendant(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	c := share("c", 102, "b")
	store.Append(c)
	b := share("b", 101, "a")
	store.Append(b)

	var dead []Share
	store.Subscribe(func(n *Notification) {
		if n.Type == NTDeadArrived {
			dead = append(dead, n.Data.(Share))
		}
	})

	orphanB := share("orphan-b", 101, "a")
	if store.Append(orphanB) {
		t.Fatal("expected dead share append to return false")
	}
	if len(dead) != 1 || dead[0].Hash() != orphanB.Hash() {
		t.Fatalf("expected deadArrived for orphan-b, got %+v", dead)
	}
	if _, ok := store.Get(orphanB.Hash()); ok {
		t.Fatal("expected dead share removed from indexes")
	}
}

func TestAppendBackfillPromotesReferencedShare(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	bWrong := share("b-wrong", 101, "unrelated")
	store.Append(bWrong)
	c := share("c", 102, "b-real")
	store.Append(c)

	var orphans []Share
	store.Subscribe(func(n *Notification) {
		if n.Type == NTOrphansFound {
			orphans = append(orphans, n.Data.([]Share)...)
		}
	})

	bReal := share("b-real", 101, "a")
	if store.Append(bReal) {
		t.Fatal("backfill append should return false (not broadcast-worthy)")
	}
	list := store.AtHeight(101)
	if len(list) != 2 || list[0].Hash() != bReal.Hash() {
		t.Fatalf("expected bReal promoted to index 0, got %+v", list)
	}
	if len(orphans) != 1 || orphans[0].Hash() != bWrong.Hash() {
		t.Fatalf("expected bWrong demoted to orphan, got %+v", orphans)
	}
}

func TestAppendBelowNewestSilentFillWhenOnlyShareAtHeight(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	c := share("c", 102, "b")
	store.Append(c)

	bReal := share("b", 101, "a")
	if store.Append(bReal) {
		t.Fatal("silent fill should return false")
	}
	got, ok := store.Get(bReal.Hash())
	if !ok || got.Hash() != bReal.Hash() {
		t.Fatal("expected filled-in share reachable via Get")
	}
}

func TestCleanDeprecationsEvictsOldestWindow(t *testing.T) {
	store := NewChainStore()
	a := share("a", 0, "")
	store.Append(a)
	b := share("b", MaxChainLength, "a")
	store.Append(b)

	if _, ok := store.Get(a.Hash()); ok {
		t.Fatal("expected oldest share evicted once window exceeds MaxChainLength")
	}
}

func TestVerifyLatchesCalculatableOnce(t *testing.T) {
	store := NewChainStore()
	var fired int
	store.Subscribe(func(n *Notification) {
		if n.Type == NTChainCalculatable {
			fired++
		}
	})

	prevLabel := ""
	for h := uint32(0); h < BaseChainLength; h++ {
		label := "s"
		s := share(label+string(rune(h)), h, prevLabel)
		store.Append(s)
		prevLabel = label + string(rune(h))
	}

	if !store.Verify() {
		t.Fatal("expected chain to verify consistent")
	}
	if !store.Calculatable() {
		t.Fatal("expected calculatable latched")
	}
	store.Verify()
	if fired != 1 {
		t.Fatalf("expected chainCalculatable fired exactly once, got %d", fired)
	}
}

func TestCheckGapsReportsDiscontinuityAndShortWindow(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	c := share("c", 102, "b")
	store.Append(c)

	gaps := store.CheckGaps()
	if len(gaps) < 2 {
		t.Fatalf("expected both a discontinuity gap and a short-window gap, got %+v", gaps)
	}
	foundDiscontinuity := false
	foundShortWindow := false
	for _, g := range gaps {
		if g.DescendentHeight == 102 && g.Length == 2 {
			foundDiscontinuity = true
		}
		if g.DescendentHeight == 100 && g.Length == BaseChainLength-2 {
			foundShortWindow = true
		}
	}
	if !foundDiscontinuity || !foundShortWindow {
		t.Fatalf("missing expected gaps: %+v", gaps)
	}
}

func TestSubchainLazyWalkStopsAtMissingHeight(t *testing.T) {
	store := NewChainStore()
	a := share("a", 100, "")
	store.Append(a)
	b := share("b", 101, "a")
	store.Append(b)
	c := share("c", 102, "b")
	store.Append(c)

	it := store.Subchain(c.Hash(), 10, Backward)
	var walked []chainhash.Hash
	for {
		s, ok := it()
		if !ok {
			break
		}
		walked = append(walked, s.Hash())
	}
	if len(walked) != 3 {
		t.Fatalf("expected walk of 3 shares bounded by missing height, got %d", len(walked))
	}
	if walked[0] != c.Hash() || walked[2] != a.Hash() {
		t.Fatalf("unexpected walk order: %+v", walked)
	}
}
