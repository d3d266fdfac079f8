package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/tokenward/tokenward-go/internal/core/domain"
	"github.com/tokenward/tokenward-go/internal/storage/memory"
	"github.com/tokenward/tokenward-go/pkg/token"
)

// BenchmarkSecretGenerate benchmarks plaintext secret generation.
func BenchmarkSecretGenerate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := token.NewSecret(); err != nil {
			b.Fatalf("NewSecret failed: %v", err)
		}
	}
}

// BenchmarkHashSecret benchmarks secret digest computation.
func BenchmarkHashSecret(b *testing.B) {
	secret, _ := token.NewSecret()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		domain.HashSecret(secret)
	}
}

// BenchmarkMint benchmarks the full mint path on the memory store.
func BenchmarkMint(b *testing.B) {
	ctx := context.Background()
	svc := newBenchService(b)
	owner := domain.OwnerRef{Kind: "user", ID: "42"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := svc.Mint(ctx, &MintRequest{Owner: owner, Name: "bench"})
		if err != nil {
			b.Fatalf("Mint failed: %v", err)
		}
	}
}

// BenchmarkAuthenticate benchmarks credential verification against a
// prefilled store.
func BenchmarkAuthenticate(b *testing.B) {
	for _, count := range []int{100, 10000} {
		b.Run(fmt.Sprintf("tokens_%d", count), func(b *testing.B) {
			ctx := context.Background()
			svc := newBenchService(b)

			credentials := make([]string, count)
			for i := range credentials {
				owner := domain.OwnerRef{Kind: "user", ID: fmt.Sprintf("%d", i%64)}
				minted, err := svc.Mint(ctx, &MintRequest{Owner: owner, Name: "bench"})
				if err != nil {
					b.Fatalf("Mint failed: %v", err)
				}
				credentials[i] = minted.Credential
			}

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				if _, err := svc.Authenticate(ctx, credentials[i%count]); err != nil {
					b.Fatalf("Authenticate failed: %v", err)
				}
			}
		})
	}
}

func newBenchService(b *testing.B) *TokenService {
	b.Helper()

	registry := domain.NewOwnerRegistry()
	registry.Register("user", domain.AllowAllResolver{})
	return NewTokenService(memory.New(), registry, WithLogger(discardLogger()))
}
