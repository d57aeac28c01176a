package main

import (
	"context"

	"github.com/hupe1980/celldb"
)

func (a *app) openDB(ctx context.Context, extra ...celldb.Option) (*celldb.DB, error) {
	bs, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.dbOptions()
	if err != nil {
		return nil, err
	}
	return celldb.Open(ctx, bs, append(opts, extra...)...)
}
