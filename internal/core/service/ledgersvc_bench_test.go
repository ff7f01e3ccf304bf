package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/arvos-io/expiryledger/internal/core/domain"
)

func benchService(b *testing.B) (*LedgerService, *manualClock) {
	b.Helper()
	clock := &manualClock{now: 1_000_000}
	svc := NewLedgerService(LedgerServiceConfig{Clock: clock})
	return svc, clock
}

func benchHolder(i int) string {
	// Vary the tail of the 26-char ULID body to keep holders distinct.
	return fmt.Sprintf("elac-01arz3ndektsv4rrffq6%06d", i%1000000)
}

func BenchmarkMint(b *testing.B) {
	svc, clock := benchService(b)
	adminCap := AdminCapability{keyID: "elak-bench"}
	ctx := context.Background()

	if err := svc.Register(ctx, adminCap, []RegisterRequest{
		{TokenID: 1, Metadata: domain.MetadataURL{URL: "https://meta.example/1"}},
	}); err != nil {
		b.Fatalf("Register: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := svc.Mint(ctx, adminCap, benchHolder(i), []MintRequest{
			{TokenID: 1, Amount: 10, Expiry: clock.now + 60_000},
		})
		if err != nil {
			b.Fatalf("Mint: %v", err)
		}
	}
}

func BenchmarkBalanceOf(b *testing.B) {
	for _, holders := range []int{100, 10_000} {
		b.Run(fmt.Sprintf("holders_%d", holders), func(b *testing.B) {
			svc, clock := benchService(b)
			adminCap := AdminCapability{keyID: "elak-bench"}
			ctx := context.Background()

			if err := svc.Register(ctx, adminCap, []RegisterRequest{
				{TokenID: 1, Metadata: domain.MetadataURL{URL: "https://meta.example/1"}},
			}); err != nil {
				b.Fatalf("Register: %v", err)
			}
			for i := 0; i < holders; i++ {
				err := svc.Mint(ctx, adminCap, benchHolder(i), []MintRequest{
					{TokenID: 1, Amount: 10, Expiry: clock.now + 60_000},
				})
				if err != nil {
					b.Fatalf("Mint: %v", err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := svc.BalanceOf(ctx, []BalanceQuery{
					{TokenID: 1, Holder: benchHolder(i % holders)},
				})
				if err != nil {
					b.Fatalf("BalanceOf: %v", err)
				}
			}
		})
	}
}
