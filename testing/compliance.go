package ledgertest

import (
	"sync"
	"testing"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/types"
)

// compliance carries what every check needs.
type compliance struct {
	factory func() ledgerkit.Lifecycle
	txs     []types.Tx
}

// started returns a harness around a fresh application after a default
// genesis handshake.
func (c compliance) started(t *testing.T) *Harness {
	t.Helper()
	h := NewHarness(t, c.factory())
	h.GenesisDefault()
	return h
}

var complianceChecks = []struct {
	name string
	run  func(t *testing.T, c compliance)
}{
	{"genesis_handshake", func(t *testing.T, c compliance) {
		resp := NewHarness(t, c.factory()).GenesisDefault()
		if resp.LastBlock != nil {
			t.Error("genesis handshake should return nil LastBlock")
		}
		if resp.AppHash == nil {
			t.Error("genesis handshake should return a non-nil AppHash")
		}
	}},

	{"execute_commit_cycle", func(t *testing.T, c compliance) {
		h := c.started(t)
		for i := 1; i <= 5; i++ {
			if outcome := h.NextBlock(); outcome.AppHash == (types.AppHash{}) {
				t.Errorf("height %d: zero app hash", h.Height())
			}
		}
	}},

	{"deterministic", func(t *testing.T, c compliance) {
		h1, h2 := c.started(t), c.started(t)
		blocks := [][]types.Tx{nil, c.txs, nil}
		for _, txs := range blocks {
			o1, o2 := h1.NextBlock(txs...), h2.NextBlock(txs...)
			if o1.AppHash != o2.AppHash {
				t.Errorf("height %d: non-deterministic: %x != %x", h1.Height(), o1.AppHash, o2.AppHash)
			}
			for i := range o1.TxOutcomes {
				if o1.TxOutcomes[i].Code != o2.TxOutcomes[i].Code {
					t.Errorf("height %d tx %d: codes differ: %d != %d",
						h1.Height(), i, o1.TxOutcomes[i].Code, o2.TxOutcomes[i].Code)
				}
			}
		}
	}},

	{"concurrent_reads_after_handshake", func(t *testing.T, c compliance) {
		h := c.started(t)
		srv := h.Server()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := srv.CheckTx(t.Context(), c.txs[0], types.MempoolFirstSeen); err != nil {
					t.Errorf("concurrent CheckTx failed: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				if _, err := srv.Query(t.Context(), types.StateQuery{Path: "/block"}); err != nil {
					t.Errorf("concurrent Query failed: %v", err)
				}
			}()
		}
		wg.Wait()
	}},

	{"query_returns_height", func(t *testing.T, c compliance) {
		h := c.started(t)
		h.NextBlock()
		h.NextBlock()

		if result := h.Query("/block", nil); result.Height != 2 {
			t.Errorf("query height should be 2 after two commits, got %d", result.Height)
		}
	}},

	{"tx_outcome_indices", func(t *testing.T, c compliance) {
		outcome := c.started(t).NextBlock(c.txs...)
		for i, o := range outcome.TxOutcomes {
			if o.Index != uint32(i) {
				t.Errorf("tx %d: expected index %d, got %d", i, i, o.Index)
			}
		}
	}},

	{"mismatched_block_is_retryable", func(t *testing.T, c compliance) {
		h := c.started(t)
		for _, height := range []uint64{0, 2, 100} {
			err := h.RejectBlock(MakeBlock(height, c.txs...))
			m, ok := ledgerkit.IsBlockNumberMismatch(err)
			if !ok {
				t.Fatalf("height %d: expected block number mismatch, got %v", height, err)
			}
			if m.Expected != 1 || m.Got != height {
				t.Errorf("height %d: unexpected mismatch %+v", height, m)
			}
		}

		// The rejected blocks left nothing behind.
		o1 := h.NextBlock(c.txs...)
		o2 := c.started(t).NextBlock(c.txs...)
		if o1.AppHash != o2.AppHash {
			t.Errorf("rejected blocks changed state: %x != %x", o1.AppHash, o2.AppHash)
		}
	}},

	{"restart_reports_committed_block", func(t *testing.T, c compliance) {
		app := c.factory()
		h := NewHarness(t, app)
		h.GenesisDefault()
		h.NextBlock(c.txs...)
		last := h.NextBlock()

		restarted := NewHarness(t, app)
		resp := restarted.Restart(types.BlockID{Height: 2})
		if resp.LastBlock == nil || resp.LastBlock.Height != 2 {
			t.Fatalf("restart should report block 2, got %+v", resp.LastBlock)
		}
		if resp.AppHash == nil || *resp.AppHash != last.AppHash {
			t.Errorf("restart app hash %x does not match last commit %x", resp.AppHash, last.AppHash)
		}
		restarted.NextBlock()
	}},

	{"skipped_height_rejected", func(t *testing.T, c compliance) {
		h := c.started(t)
		h.NextBlock()
		if _, ok := ledgerkit.IsBlockNumberMismatch(h.RejectBlock(MakeEmptyBlock(3))); !ok {
			t.Fatal("expected block number mismatch for a skipped height")
		}
		h.NextBlock()
	}},
}

// RunComplianceSuite checks that an application follows the lifecycle
// contract: deterministic execution, strict block numbering with
// retryable rejections, and reads that are safe after handshake.
//
// factory must return a fresh application for each call. txs are sample
// transactions for the determinism and indexing checks; arbitrary bytes
// are used if none are given, which exercises the malformed-transaction
// path.
func RunComplianceSuite(t *testing.T, factory func() ledgerkit.Lifecycle, txs ...types.Tx) {
	t.Helper()

	if len(txs) == 0 {
		txs = []types.Tx{
			{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			{0x02, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
			{0x03, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		}
	}

	c := compliance{factory: factory, txs: txs}
	for _, check := range complianceChecks {
		t.Run(check.name, func(t *testing.T) {
			check.run(t, c)
		})
	}
}
