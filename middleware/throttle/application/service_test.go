package application

import (
	"testing"
	"time"

	"throttling-gateway/middleware/throttle/domain"
)

type fakeBucket struct {
	dec domain.Decision
}

func (f fakeBucket) Probe() domain.Decision { return f.dec }

type fakeStore struct {
	bucket   domain.Bucket
	resolved []domain.Key
}

func (s *fakeStore) Resolve(k domain.Key) domain.Bucket {
	s.resolved = append(s.resolved, k)
	return s.bucket
}

func TestService_Decide_AllowsWhenNoStore(t *testing.T) {
	svc := Service{}
	dec := svc.Decide("k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if dec.RetryAfter != 0 {
		t.Fatalf("expected RetryAfter=0 when allowed, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_AllowsWhenBucketAdmits(t *testing.T) {
	store := &fakeStore{bucket: fakeBucket{dec: domain.Decision{Allowed: true}}}
	svc := Service{Buckets: store}

	dec := svc.Decide("k")
	if !dec.Allowed {
		t.Fatalf("expected allowed")
	}
	if len(store.resolved) != 1 || store.resolved[0] != "k" {
		t.Fatalf("expected store to be resolved once for k, got %v", store.resolved)
	}
}

func TestService_Decide_PropagatesBucketWait(t *testing.T) {
	store := &fakeStore{bucket: fakeBucket{dec: domain.Decision{Allowed: false, RetryAfter: 8 * time.Second}}}
	svc := Service{Buckets: store}

	dec := svc.Decide("k")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != 8*time.Second {
		t.Fatalf("expected RetryAfter=8s from the bucket, got %s", dec.RetryAfter)
	}
}

func TestService_Decide_EmptyKeyIsValid(t *testing.T) {
	store := &fakeStore{bucket: fakeBucket{dec: domain.Decision{Allowed: true}}}
	svc := Service{Buckets: store}

	if dec := svc.Decide(""); !dec.Allowed {
		t.Fatalf("expected empty key (global bucket) to be decided normally")
	}
	if len(store.resolved) != 1 || store.resolved[0] != "" {
		t.Fatalf("expected resolve with the empty key, got %v", store.resolved)
	}
}
