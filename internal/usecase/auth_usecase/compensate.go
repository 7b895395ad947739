package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Compensateはstepを実行し、失敗したらrollbackで直前の書き込みを取り消す。
// rollbackも失敗したらDPanicで残す（手動での復旧が必要）。
// rollbackはリクエストがキャンセルされていても走らせる。
func Compensate(
	ctx context.Context,
	log *zap.Logger,
	op string,
	step func(ctx context.Context) error,
	rollback func(ctx context.Context) error,
) error {
	err := step(ctx)
	if err == nil {
		return nil
	}

	if rbErr := rollback(context.WithoutCancel(ctx)); rbErr != nil {
		log.DPanic("compensating rollback failed, manual remediation required",
			zap.String("op", op),
			zap.Error(err),
			zap.NamedError("rollback_error", rbErr),
		)
		return fmt.Errorf("%s: %w (rollback failed: %v)", op, err, rbErr)
	}

	log.Warn("step failed, rolled back", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
