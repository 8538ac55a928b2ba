package orderbook

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRBTreeInsertFindDelete(t *testing.T) {
	tree := NewRBTree()
	pl1 := tree.UpsertLevel(d("100.25"))
	if pl1 == nil {
		t.Fatal("UpsertLevel failed")
	}
	if pl2 := tree.FindLevel(d("100.25")); pl2 != pl1 {
		t.Error("FindLevel did not return same PriceLevel")
	}

	tree.UpsertLevel(d("200.50"))
	if !tree.MinLevel().Price.Equal(d("100.25")) {
		t.Error("expected min=100.25")
	}
	if !tree.MaxLevel().Price.Equal(d("200.50")) {
		t.Error("expected max=200.50")
	}

	if !tree.DeleteLevel(d("100.25")) {
		t.Error("DeleteLevel failed")
	}
	if tree.FindLevel(d("100.25")) != nil {
		t.Error("expected level 100.25 to be gone")
	}
}

func TestRBTreeOrderedWalks(t *testing.T) {
	tree := NewRBTree()
	prices := []string{"10.05", "9.99", "10.10", "10.00", "9.50"}
	for _, p := range prices {
		tree.UpsertLevel(d(p))
	}

	var asc []decimal.Decimal
	tree.ForEachAscending(func(lvl *PriceLevel) bool {
		asc = append(asc, lvl.Price)
		return true
	})
	if len(asc) != len(prices) {
		t.Fatalf("expected %d levels, got %d", len(prices), len(asc))
	}
	for i := 1; i < len(asc); i++ {
		if asc[i].Cmp(asc[i-1]) <= 0 {
			t.Fatalf("ascending walk out of order at %d: %s <= %s", i, asc[i], asc[i-1])
		}
	}

	var desc []decimal.Decimal
	tree.ForEachDescending(func(lvl *PriceLevel) bool {
		desc = append(desc, lvl.Price)
		return true
	})
	for i := 1; i < len(desc); i++ {
		if desc[i].Cmp(desc[i-1]) >= 0 {
			t.Fatalf("descending walk out of order at %d", i)
		}
	}
}

func TestRBTreeWalkEarlyStop(t *testing.T) {
	tree := NewRBTree()
	for _, p := range []string{"1", "2", "3", "4"} {
		tree.UpsertLevel(d(p))
	}
	visited := 0
	tree.ForEachAscending(func(lvl *PriceLevel) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("expected walk to stop after 2 levels, visited %d", visited)
	}
}

func TestRBTreeRandomizedInsertDelete(t *testing.T) {
	tree := NewRBTree()
	rng := rand.New(rand.NewSource(42))

	inserted := map[int64]bool{}
	for i := 0; i < 2000; i++ {
		k := int64(rng.Intn(500))
		tree.UpsertLevel(decimal.NewFromInt(k))
		inserted[k] = true
	}
	if tree.Size() != len(inserted) {
		t.Fatalf("size mismatch: tree=%d map=%d", tree.Size(), len(inserted))
	}

	for k := range inserted {
		if k%2 == 0 {
			if !tree.DeleteLevel(decimal.NewFromInt(k)) {
				t.Fatalf("delete of existing level %d failed", k)
			}
			delete(inserted, k)
		}
	}

	// Remaining keys still findable and in sorted order.
	var prev *decimal.Decimal
	count := 0
	tree.ForEachAscending(func(lvl *PriceLevel) bool {
		if prev != nil && lvl.Price.Cmp(*prev) <= 0 {
			t.Fatal("tree order violated after deletes")
		}
		p := lvl.Price
		prev = &p
		count++
		return true
	})
	if count != len(inserted) {
		t.Fatalf("expected %d levels after deletes, walked %d", len(inserted), count)
	}
}

// --- Edge Cases ---

func TestDeleteNonExistentLevel(t *testing.T) {
	tree := NewRBTree()
	if tree.DeleteLevel(d("123")) {
		t.Error("expected false when deleting non-existent level")
	}
}

func TestEmptyTreeMinMax(t *testing.T) {
	tree := NewRBTree()
	if tree.MinLevel() != nil || tree.MaxLevel() != nil {
		t.Error("expected nil for min/max on empty tree")
	}
}

func TestUpsertDuplicateLevel(t *testing.T) {
	tree := NewRBTree()
	pl1 := tree.UpsertLevel(d("150.00"))
	pl2 := tree.UpsertLevel(d("150.00"))
	if pl1 != pl2 {
		t.Error("Upsert should return the same level for duplicate price")
	}
}

func TestScaleInsensitiveKeys(t *testing.T) {
	tree := NewRBTree()
	pl1 := tree.UpsertLevel(d("10.0"))
	pl2 := tree.UpsertLevel(d("10.00"))
	if pl1 != pl2 {
		t.Error("10.0 and 10.00 must map to the same level")
	}
}
