package local

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/blockberries/ledgerkit/app"
	ledgertest "github.com/blockberries/ledgerkit/testing"
	"github.com/blockberries/ledgerkit/types"
)

func TestLocalConnection_FullCycle(t *testing.T) {
	conn := NewConnection(app.New())
	defer conn.Close()

	_, err := conn.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &types.GenesisDoc{
			ChainID:  "test",
			AppState: app.MarshalGenesis(map[string]uint64{"alice": 100}),
		},
	})
	if err != nil {
		t.Fatalf("handshake failed: %v", err)
	}

	want := types.CapStateSync | types.CapSimulation
	if conn.Capabilities() != want {
		t.Errorf("expected %s, got %s", want, conn.Capabilities())
	}
	if conn.AsStateSync() == nil {
		t.Error("expected StateSync")
	}
	if conn.AsSimulator() == nil {
		t.Error("expected Simulator")
	}

	outcome, err := conn.ExecuteBlock(context.Background(), types.FinalizedBlock{
		Height: 1,
		Txs:    []types.Tx{app.TransferTx("alice", "bob", 42)},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !outcome.TxOutcomes[0].OK() {
		t.Fatalf("tx failed: %s", outcome.TxOutcomes[0].Info)
	}

	if _, err := conn.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	result, err := conn.Query(context.Background(), types.StateQuery{
		Path: app.PathBalance,
		Data: []byte("bob"),
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if got := binary.BigEndian.Uint64(result.Value[24:]); got != 42 {
		t.Errorf("expected bob=42, got %d", got)
	}
}

func TestLocalConnection_NoOptionalCapabilities(t *testing.T) {
	conn := NewConnection(&ledgertest.MockApp{})

	_, err := conn.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &types.GenesisDoc{ChainID: "test"},
	})
	if err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if conn.Capabilities() != 0 {
		t.Errorf("expected no capabilities, got %s", conn.Capabilities())
	}
	if conn.AsStateSync() != nil {
		t.Error("expected nil StateSync")
	}
	if conn.AsSimulator() != nil {
		t.Error("expected nil Simulator")
	}
}

func TestLocalConnection_CheckTxConcurrent(t *testing.T) {
	conn := NewConnection(app.New())

	_, err := conn.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &types.GenesisDoc{ChainID: "test"},
	})
	if err != nil {
		t.Fatalf("handshake failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := conn.CheckTx(context.Background(), app.CreateClaimTx("alice", "doc"), types.MempoolFirstSeen)
			if err != nil {
				t.Errorf("CheckTx error: %v", err)
				return
			}
			if !v.Accepted() {
				t.Errorf("CheckTx rejected: %s", v.Info)
			}
		}()
	}
	wg.Wait()
}

type closingApp struct {
	*ledgertest.MockApp
	closed bool
}

func (a *closingApp) Close() error {
	a.closed = true
	return nil
}

func TestLocalConnection_CloseReleasesApp(t *testing.T) {
	a := &closingApp{MockApp: &ledgertest.MockApp{}}
	conn := NewConnection(a)
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed {
		t.Error("expected app to be closed")
	}
}
