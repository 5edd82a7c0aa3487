package transaction

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTransaction 把 tx 挂到 ctx 上，下游 repo 通过 GetTransactionOrDB 取用
func WithTransaction(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// InTransaction reports whether ctx already carries a transaction.
func InTransaction(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// GetTransactionOrDB 优先返回 ctx 中的事务，否则返回 db，两者都绑定 ctx
func GetTransactionOrDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFrom(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
