package ledgergrpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/blockberries/ledgerkit"
)

// Trailer keys carrying the fields of typed ExecuteBlock errors.
const (
	trailerExpected   = "ledgerkit-expected-block"
	trailerGot        = "ledgerkit-got-block"
	trailerHaltHeight = "ledgerkit-halt-height"
	trailerHaltReason = "ledgerkit-halt-reason"
)

// toStatus converts typed runtime errors into gRPC statuses. The fields of
// mismatch and halt errors travel in the trailer. Other errors pass
// through unchanged.
func toStatus(ctx context.Context, err error) error {
	if m, ok := ledgerkit.IsBlockNumberMismatch(err); ok {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(
			trailerExpected, strconv.FormatUint(m.Expected, 10),
			trailerGot, strconv.FormatUint(m.Got, 10),
		))
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if h, ok := ledgerkit.IsHalt(err); ok {
		_ = grpc.SetTrailer(ctx, metadata.Pairs(
			trailerHaltHeight, strconv.FormatUint(h.Height, 10),
			trailerHaltReason, h.Reason,
		))
		return status.Error(codes.Aborted, err.Error())
	}
	if errors.Is(err, ledgerkit.ErrCapabilityUnavailable) {
		return status.Error(codes.Unimplemented, err.Error())
	}
	return err
}

// fromStatus rebuilds the typed error toStatus encoded. Without the
// expected trailer the status error is returned as is.
func fromStatus(err error, md metadata.MD) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		expected, ok1 := trailerUint(md, trailerExpected)
		got, ok2 := trailerUint(md, trailerGot)
		if ok1 && ok2 {
			return &ledgerkit.BlockNumberMismatchError{Expected: expected, Got: got}
		}
	case codes.Unimplemented:
		return fmt.Errorf("%w: %s", ledgerkit.ErrCapabilityUnavailable, st.Message())
	case codes.Aborted:
		height, ok := trailerUint(md, trailerHaltHeight)
		reasons := md.Get(trailerHaltReason)
		if ok && len(reasons) == 1 {
			return ledgerkit.NewHaltError(height, reasons[0])
		}
	}
	return err
}

func trailerUint(md metadata.MD, key string) (uint64, bool) {
	vals := md.Get(key)
	if len(vals) != 1 {
		return 0, false
	}
	v, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
