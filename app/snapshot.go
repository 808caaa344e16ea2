package app

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/ledgerkit/types"
)

const (
	snapshotFormat    uint32 = 1
	snapshotChunkSize        = 64 * 1024 // 64 KiB per chunk
)

// snapshot encodes committed state. Callers hold app.mu.
func (app *App) snapshot() ([]byte, types.SnapshotDescriptor, error) {
	data, err := encodeState(app.current)
	if err != nil {
		return nil, types.SnapshotDescriptor{}, err
	}
	return data, types.SnapshotDescriptor{
		Height: app.height(),
		Format: snapshotFormat,
		Chunks: uint32((len(data) + snapshotChunkSize - 1) / snapshotChunkSize),
		Hash:   types.Hash(sha256.Sum256(data)),
	}, nil
}

// AvailableSnapshots offers the committed state. There is nothing to
// offer before the first block.
func (app *App) AvailableSnapshots(_ context.Context) ([]types.SnapshotDescriptor, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if app.height() == 0 {
		return nil, nil
	}
	_, desc, err := app.snapshot()
	if err != nil {
		return nil, err
	}
	return []types.SnapshotDescriptor{desc}, nil
}

func (app *App) ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	if format != snapshotFormat {
		return nil, nil, fmt.Errorf("unsupported snapshot format %d", format)
	}
	if app.height() != height {
		return nil, nil, fmt.Errorf("snapshot at height %d not available (current: %d)", height, app.height())
	}

	data, desc, err := app.snapshot()
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan types.SnapshotChunk, desc.Chunks)
	go func() {
		defer close(ch)
		for i := uint32(0); i < desc.Chunks; i++ {
			start := int(i) * snapshotChunkSize
			end := min(start+snapshotChunkSize, len(data))
			select {
			case ch <- types.SnapshotChunk{Index: i, Data: data[start:end]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, &desc, nil
}

// ImportSnapshot replaces committed state with the snapshot. A halted
// app stays halted.
func (app *App) ImportSnapshot(_ context.Context, descriptor types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	if descriptor.Format != snapshotFormat {
		// Drain so the sender is never blocked.
		for range chunks {
		}
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: fmt.Sprintf("unsupported format %d", descriptor.Format),
		}, nil
	}

	received := make(map[uint32][]byte)
	for chunk := range chunks {
		if chunk.Index < descriptor.Chunks {
			received[chunk.Index] = chunk.Data
		}
	}

	if uint32(len(received)) != descriptor.Chunks {
		var missing []uint32
		for i := uint32(0); i < descriptor.Chunks; i++ {
			if _, ok := received[i]; !ok {
				missing = append(missing, i)
			}
		}
		return types.ImportResult{
			Status:       types.ImportRetryChunks,
			RetryIndices: missing,
		}, nil
	}

	var full []byte
	for i := uint32(0); i < descriptor.Chunks; i++ {
		full = append(full, received[i]...)
	}

	if types.Hash(sha256.Sum256(full)) != descriptor.Hash {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: "snapshot hash mismatch",
		}, nil
	}

	rt, err := decodeState(full)
	if err != nil {
		return types.ImportResult{Status: types.ImportReject, Reason: err.Error()}, nil
	}
	if got := rt.System.CurrentBlock().Uint64(); got != descriptor.Height {
		return types.ImportResult{
			Status: types.ImportReject,
			Reason: fmt.Sprintf("snapshot holds block %d, descriptor says %d", got, descriptor.Height),
		}, nil
	}
	h, err := appHash(rt)
	if err != nil {
		return types.ImportResult{}, err
	}

	app.mu.Lock()
	app.current = rt
	app.appHash = h
	app.staged = nil
	app.mu.Unlock()

	app.logger.Info("snapshot imported",
		zap.Uint64("height", descriptor.Height),
		zap.Uint32("chunks", descriptor.Chunks),
	)
	return types.ImportResult{
		Status:  types.ImportOK,
		AppHash: &h,
	}, nil
}
