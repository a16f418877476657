package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	authRedis "github.com/frahmantamala/user-rbac/internal/auth/redis"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goredis "github.com/redis/go-redis/v9"
)

func TestRedisRevocation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Redis Suite")
}

var _ = Describe("RevocationStore", func() {
	var (
		mr     *miniredis.Miniredis
		client *goredis.Client
		store  *authRedis.RevocationStore
		ctx    context.Context
	)

	BeforeEach(func() {
		mr = miniredis.RunT(GinkgoT())
		client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		store = authRedis.NewRevocationStore(client)
		ctx = context.Background()
	})

	AfterEach(func() {
		_ = client.Close()
	})

	It("should remember a revoked token until its ttl passes", func() {
		Expect(store.Revoke(ctx, "jti-1", time.Minute)).To(Succeed())

		revoked, err := store.IsRevoked(ctx, "jti-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(revoked).To(BeTrue())

		mr.FastForward(2 * time.Minute)

		revoked, err = store.IsRevoked(ctx, "jti-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(revoked).To(BeFalse())
	})

	It("should skip tokens that already expired", func() {
		Expect(store.Revoke(ctx, "jti-2", 0)).To(Succeed())
		Expect(mr.Exists("auth:revoked:jti-2")).To(BeFalse())
	})

	It("should surface connection errors", func() {
		mr.Close()
		_, err := store.IsRevoked(ctx, "jti-3")
		Expect(err).To(HaveOccurred())
	})
})
