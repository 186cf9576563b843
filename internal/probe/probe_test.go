package probe

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// Func / Static

func TestFunc_ImplementsProbe(t *testing.T) {
	var _ Probe = Func(func(ctx context.Context) error { return nil })
}

func TestStatic(t *testing.T) {
	if err := Static(true, "").Check(context.Background()); err != nil {
		t.Fatalf("Static(true) should pass, got %v", err)
	}

	err := Static(false, "crm unreachable").Check(context.Background())
	if err == nil || err.Error() != "crm unreachable" {
		t.Fatalf("err = %v, want 'crm unreachable'", err)
	}

	err = Static(false, "").Check(context.Background())
	if err == nil || err.Error() != "unhealthy" {
		t.Fatalf("err = %v, want default reason", err)
	}
}

// Multi / Any

func TestMulti_AllMustPass(t *testing.T) {
	pass := Static(true, "")
	fail := Static(false, "first failure")

	if err := Multi(pass, pass).Check(context.Background()); err != nil {
		t.Fatalf("all passing: %v", err)
	}
	if err := Multi(pass, fail, Static(false, "second")).Check(context.Background()); err == nil || err.Error() != "first failure" {
		t.Fatalf("err = %v, want first failure", err)
	}
	if err := Multi(nil, pass).Check(context.Background()); err != nil {
		t.Fatalf("nil probes should be skipped: %v", err)
	}
}

func TestAny_OnePassingIsEnough(t *testing.T) {
	pass := Static(true, "")
	fail := Static(false, "down")

	if err := Any(fail, pass).Check(context.Background()); err != nil {
		t.Fatalf("one passing: %v", err)
	}
	if err := Any(fail, fail).Check(context.Background()); err == nil {
		t.Fatal("all failing should fail")
	}
	if err := Any().Check(context.Background()); err == nil {
		t.Fatal("no probes should fail")
	}
}

// ShutdownGate

func TestShutdownGate_Lifecycle(t *testing.T) {
	var g ShutdownGate
	p := g.Probe()

	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("open gate should pass: %v", err)
	}

	g.Set("draining")
	if err := p.Check(context.Background()); err == nil || err.Error() != "draining" {
		t.Fatalf("err = %v, want draining", err)
	}

	g.Set("")
	if err := p.Check(context.Background()); err == nil || err.Error() != "draining" {
		t.Fatalf("empty reason should fall back to 'draining', got %v", err)
	}

	g.Clear()
	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("cleared gate should pass: %v", err)
	}
}

func TestShutdownGate_ConcurrentSet(t *testing.T) {
	var g ShutdownGate
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.Set(fmt.Sprintf("drain-%d", i))
		}(i)
	}
	wg.Wait()
	if err := g.Probe().Check(context.Background()); err == nil {
		t.Fatal("gate should be closed after concurrent Set")
	}
}
