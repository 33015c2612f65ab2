package main

import (
	"context"

	"github.com/pkg/errors"
)

//go:generate go run github.com/CherkashinEvgeny/goadvice gen . Billing --out billing_advised.go

var ErrInsufficientFunds = errors.New("insufficient funds")

type Billing interface {
	Charge(ctx context.Context, amount int) (int, error)
	Refund(ctx context.Context, amount int) (int, error)
	Balance() int
}

type LocalBilling struct {
	balance int
}

func (b *LocalBilling) Charge(ctx context.Context, amount int) (int, error) {
	if amount > b.balance {
		return b.balance, errors.Wrapf(ErrInsufficientFunds, "charge %d", amount)
	}
	b.balance -= amount
	return b.balance, nil
}

func (b *LocalBilling) Refund(ctx context.Context, amount int) (int, error) {
	b.balance += amount
	return b.balance, nil
}

func (b *LocalBilling) Balance() int {
	return b.balance
}
