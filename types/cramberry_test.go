package types_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/ledgerkit/types"
)

// roundTrip marshals v, unmarshals into a new T, and returns it.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out T
	if err := cramberry.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return out
}

func TestTimestamp_RoundTrip(t *testing.T) {
	ts := types.TimeToTimestamp(time.Date(2024, 6, 15, 12, 30, 45, 123456789, time.UTC))
	got := roundTrip(t, ts)
	if got != ts {
		t.Fatalf("Timestamp round-trip failed: got %+v, want %+v", got, ts)
	}
	goTime := got.ToTime()
	if goTime.Year() != 2024 || goTime.Month() != 6 || goTime.Day() != 15 {
		t.Fatalf("Timestamp.ToTime date wrong: %v", goTime)
	}
	if goTime.Nanosecond() != 123456789 {
		t.Fatalf("Timestamp.ToTime nanos wrong: %d", goTime.Nanosecond())
	}
}

func TestTimestamp_IsZero(t *testing.T) {
	if !(types.Timestamp{}).IsZero() {
		t.Fatal("zero Timestamp must report IsZero")
	}
	if types.TimeToTimestamp(time.Unix(0, 1)).IsZero() {
		t.Fatal("non-zero Timestamp reported IsZero")
	}
}

func TestEvent_Helpers(t *testing.T) {
	ev := types.NewEvent("transfer",
		types.IndexedAttr("from", "alice"),
		types.Attr("amount", "69"),
	)
	if v, ok := ev.Get("from"); !ok || v != "alice" {
		t.Fatalf("Get(from) = %q, %v", v, ok)
	}
	if !ev.Attributes[0].Index || ev.Attributes[1].Index {
		t.Fatalf("unexpected index flags: %+v", ev.Attributes)
	}
	if _, ok := ev.Get("to"); ok {
		t.Fatal("Get(to) found a missing attribute")
	}
}

func TestImportStatus_String(t *testing.T) {
	if types.ImportRetryChunks.String() != "retry_chunks" {
		t.Fatalf("unexpected name %q", types.ImportRetryChunks.String())
	}
	if types.ImportStatus(9).String() != "ImportStatus(9)" {
		t.Fatalf("unexpected name %q", types.ImportStatus(9).String())
	}
}

func TestBlockOutcome_RoundTrip(t *testing.T) {
	v := types.BlockOutcome{
		TxOutcomes: []types.TxOutcome{
			{Index: 0, Code: 0, Events: []types.Event{{
				Kind: "transfer",
				Attributes: []types.EventAttribute{
					{Key: "from", Value: "alice", Index: true},
					{Key: "amount", Value: "69"},
				},
			}}},
			{Index: 1, Code: 2, Info: "balances: insufficient balance"},
		},
		AppHash: types.AppHash{0xAB},
	}
	got := roundTrip(t, v)
	if got.AppHash != v.AppHash {
		t.Fatalf("BlockOutcome.AppHash mismatch")
	}
	if len(got.TxOutcomes) != 2 || got.TxOutcomes[1].OK() || !got.TxOutcomes[0].OK() {
		t.Fatalf("BlockOutcome.TxOutcomes wrong: %+v", got.TxOutcomes)
	}
	attrs := got.TxOutcomes[0].Events[0].Attributes
	if len(attrs) != 2 || attrs[0] != v.TxOutcomes[0].Events[0].Attributes[0] {
		t.Fatalf("event attributes mismatch: %+v", attrs)
	}
}

func TestHandshake_RoundTrip(t *testing.T) {
	req := types.HandshakeRequest{Genesis: &types.GenesisDoc{
		ChainID:         "ledgerkit-test",
		InitialHeight:   1,
		ConsensusParams: types.ConsensusParams{MaxTxBytes: 1024},
		AppState:        []byte(`{"balances":{"alice":"100"}}`),
	}}
	gotReq := roundTrip(t, req)
	if gotReq.LastCommitted != nil || gotReq.Genesis == nil {
		t.Fatalf("HandshakeRequest pointers wrong: %+v", gotReq)
	}
	if !bytes.Equal(gotReq.Genesis.AppState, req.Genesis.AppState) {
		t.Fatalf("AppState mismatch: %q", gotReq.Genesis.AppState)
	}

	ah := types.AppHash{0xBE, 0xEF}
	resp := types.HandshakeResponse{
		LastBlock:    &types.BlockID{Height: 10},
		AppHash:      &ah,
		Capabilities: types.CapStateSync | types.CapSimulation,
	}
	got := roundTrip(t, resp)
	if got.AppHash == nil || *got.AppHash != ah {
		t.Fatalf("HandshakeResponse.AppHash mismatch")
	}
	if !got.Capabilities.Has(types.CapSimulation) {
		t.Fatalf("HandshakeResponse.Capabilities missing Simulation")
	}
}

func TestStateQuery_RoundTrip(t *testing.T) {
	h := uint64(42)
	v := types.StateQuery{Path: "/balance", Data: []byte("alice"), Height: &h}
	got := roundTrip(t, v)
	if got.Path != "/balance" || got.Height == nil || *got.Height != 42 {
		t.Fatalf("StateQuery round-trip failed: %+v", got)
	}
}

func TestImportResult_RetryChunks_RoundTrip(t *testing.T) {
	v := types.ImportResult{
		Status:       types.ImportRetryChunks,
		RetryIndices: []uint32{0, 3, 7},
	}
	got := roundTrip(t, v)
	if got.Status != types.ImportRetryChunks || len(got.RetryIndices) != 3 {
		t.Fatalf("ImportResult retry round-trip failed")
	}
}

func TestCapabilities_String(t *testing.T) {
	cases := map[types.Capabilities]string{
		0:                                        "none",
		types.CapStateSync:                       "StateSync",
		types.CapSimulation:                      "Simulation",
		types.CapStateSync | types.CapSimulation: "StateSync|Simulation",
		types.CapSimulation | 0x80:              "Simulation|0x80",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("Capabilities(%d).String() = %q, want %q", c, got, want)
		}
	}
}

func TestCapabilities_Unknown(t *testing.T) {
	if u := types.KnownCapabilities.Unknown(); u != 0 {
		t.Errorf("known capabilities reported unknown bits %s", u)
	}
	if u := (types.CapStateSync | 0x40).Unknown(); u != 0x40 {
		t.Errorf("expected unknown bit 0x40, got 0x%02x", uint8(u))
	}
}

// TestDeterminism verifies that the same struct always produces
// the same bytes (cramberry's core guarantee).
func TestDeterminism(t *testing.T) {
	v := types.FinalizedBlock{
		Height:        42,
		Time:          types.Timestamp{Seconds: 1000, Nanos: 500},
		Txs:           []types.Tx{[]byte("a"), []byte("b")},
		LastBlockHash: types.Hash{0xFF},
	}
	data1, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	data2, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatalf("non-deterministic encoding:\n%x\n%x", data1, data2)
	}
}
