package ledgertest

import (
	"context"
	"testing"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/types"
)

func TestMockApp_Compliance(t *testing.T) {
	RunComplianceSuite(t, func() ledgerkit.Lifecycle { return &MockApp{} })
}

func TestMockApp_TracksHeight(t *testing.T) {
	m := &MockApp{}
	h := NewHarness(t, m)
	h.GenesisDefault()

	h.ExecuteAndCommit(MakeEmptyBlock(1))
	h.ExecuteBlock(MakeEmptyBlock(2))
	if m.Height() != 1 {
		t.Fatalf("expected height 1 before commit, got %d", m.Height())
	}
	h.Commit()
	if m.Height() != 2 {
		t.Fatalf("expected height 2 after commit, got %d", m.Height())
	}
	if got := m.ExecuteBlockCalls.Load(); got != 2 {
		t.Errorf("expected 2 ExecuteBlock calls, got %d", got)
	}
}

func TestMockApp_Overrides(t *testing.T) {
	m := &MockApp{
		DeclaredCapabilities: types.CapSimulation,
		SimulateFn: func(context.Context, types.Tx) (types.TxOutcome, error) {
			return types.TxOutcome{Code: 7}, nil
		},
	}
	h := NewHarness(t, m)
	resp := h.GenesisDefault()
	if !resp.Capabilities.Has(types.CapSimulation) {
		t.Fatal("expected CapSimulation")
	}
	if o := h.Simulate(types.Tx{0x01}); o.Code != 7 {
		t.Errorf("expected overridden code 7, got %d", o.Code)
	}
}

func TestHarness_NextBlockFollowsHeight(t *testing.T) {
	m := &MockApp{}
	h := NewHarness(t, m)
	h.GenesisDefault()

	outcome := h.NextBlock(types.Tx{0x01}, types.Tx{0x02})
	h.RequireCodes(outcome, 0, 0)
	h.NextBlock()
	if h.Height() != 2 || m.Height() != 2 {
		t.Fatalf("expected height 2, harness=%d app=%d", h.Height(), m.Height())
	}

	// A rejected block does not move the harness.
	h.RejectBlock(MakeEmptyBlock(5))
	if h.Height() != 2 {
		t.Fatalf("expected height 2 after rejection, got %d", h.Height())
	}
}

func TestMockApp_RestartAndImport(t *testing.T) {
	m := &MockApp{}
	h := NewHarness(t, m)
	if resp := h.GenesisDefault(); resp.LastBlock != nil {
		t.Fatalf("expected no last block at genesis, got %+v", resp.LastBlock)
	}
	h.NextBlock()

	resp := NewHarness(t, m).Restart(types.BlockID{Height: 1})
	if resp.LastBlock == nil || resp.LastBlock.Height != 1 {
		t.Fatalf("expected last block 1, got %+v", resp.LastBlock)
	}

	chunks := make(chan types.SnapshotChunk)
	close(chunks)
	res, err := m.ImportSnapshot(context.Background(), types.SnapshotDescriptor{Height: 7}, chunks)
	if err != nil || res.Status != types.ImportOK {
		t.Fatalf("import: %v %v", res.Status, err)
	}
	if m.Height() != 7 {
		t.Errorf("expected height 7 after import, got %d", m.Height())
	}
}
