package genflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testFlow(stub completerFunc, cfg FlowConfig) *Flow {
	return NewFlow(NewOrchestrator(stub, fastCfg(1), discardLog()), cfg)
}

func okStub(image, text string) completerFunc {
	return func(context.Context, []ContentPart, string) (string, string, error) {
		return image, text, nil
	}
}

func TestFlowSingleVariantAppliesResult(t *testing.T) {
	f := testFlow(okStub("data:image/png;base64,ok", "note"), FlowConfig{MinDuration: time.Millisecond})

	var applied string
	err := f.Generate(context.Background(), Payload{Prompt: "p"}, 1, func(image string) error {
		applied = image
		return nil
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if applied != "data:image/png;base64,ok" {
		t.Fatalf("applied %q", applied)
	}
	st := f.State().Get()
	if st.Generating || st.Progress != 0 {
		t.Fatalf("flow did not settle: %+v", st)
	}
	if st.Note != "note" || st.Err != "" || st.Variants != nil {
		t.Fatalf("state = %+v", st)
	}
}

func TestFlowMultiVariantAwaitsPick(t *testing.T) {
	// WHAT: More than one variant is published on the state instead of being
	// applied, until ClearVariants.
	f := testFlow(okStub("data:image/png;base64,ok", ""), FlowConfig{MinDuration: time.Millisecond})

	applyCalled := false
	err := f.Generate(context.Background(), Payload{Prompt: "p"}, 3, func(string) error {
		applyCalled = true
		return nil
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if applyCalled {
		t.Fatal("apply ran for a multi-variant result")
	}
	if got := len(f.State().Get().Variants); got != 3 {
		t.Fatalf("published %d variants, want 3", got)
	}
	f.ClearVariants()
	if f.State().Get().Variants != nil {
		t.Fatal("ClearVariants left variants behind")
	}
}

func TestFlowPublishesFailure(t *testing.T) {
	stub := completerFunc(func(context.Context, []ContentPart, string) (string, string, error) {
		return "", "", errors.New("upstream down")
	})
	f := testFlow(stub, FlowConfig{MinDuration: time.Millisecond})

	err := f.Generate(context.Background(), Payload{Prompt: "p"}, 1, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	st := f.State().Get()
	if st.Err == "" || st.Generating {
		t.Fatalf("state = %+v", st)
	}
}

func TestFlowRejectsConcurrentGeneration(t *testing.T) {
	block := make(chan struct{})
	stub := completerFunc(func(context.Context, []ContentPart, string) (string, string, error) {
		<-block
		return "data:image/png;base64,ok", "", nil
	})
	f := testFlow(stub, FlowConfig{MinDuration: time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.Generate(context.Background(), Payload{Prompt: "p"}, 1, nil)
	}()

	// Wait for the first call to take the guard.
	deadline := time.Now().Add(2 * time.Second)
	for !f.State().Get().Generating {
		if time.Now().After(deadline) {
			t.Fatal("first generation never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := f.Generate(context.Background(), Payload{Prompt: "q"}, 1, nil); !errors.Is(err, ErrInFlight) {
		t.Fatalf("err = %v, want ErrInFlight", err)
	}
	close(block)
	wg.Wait()
}

func TestFlowHoldsMinimumDuration(t *testing.T) {
	f := testFlow(okStub("data:image/png;base64,ok", ""), FlowConfig{MinDuration: 80 * time.Millisecond})

	start := time.Now()
	if err := f.Generate(context.Background(), Payload{Prompt: "p"}, 1, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("settled after %v, want at least 80ms", elapsed)
	}
}

func TestFlowProgressStallsAtCeiling(t *testing.T) {
	// WHAT: Simulated progress never passes the ceiling; only the real
	// completion jumps to 100, and settling resets to 0.
	stub := completerFunc(func(context.Context, []ContentPart, string) (string, string, error) {
		time.Sleep(120 * time.Millisecond)
		return "data:image/png;base64,ok", "", nil
	})
	f := testFlow(stub, FlowConfig{
		ProgressInterval: 2 * time.Millisecond,
		StepMin:          3, StepMax: 12,
		Ceiling:     20,
		MinDuration: time.Millisecond,
	})

	var mu sync.Mutex
	var seen []float64
	unsub := f.State().Subscribe(func(s FlowState) {
		mu.Lock()
		seen = append(seen, s.Progress)
		mu.Unlock()
	})
	defer unsub()

	if err := f.Generate(context.Background(), Payload{Prompt: "p"}, 1, nil); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var sawCeiling, sawFull bool
	for _, p := range seen {
		if p > 20 && p != 100 {
			t.Fatalf("observed progress %v between ceiling and completion", p)
		}
		if p == 20 {
			sawCeiling = true
		}
		if p == 100 {
			sawFull = true
		}
	}
	if !sawCeiling || !sawFull {
		t.Fatalf("progress trace incomplete (ceiling=%v full=%v): %v", sawCeiling, sawFull, seen)
	}
	if last := seen[len(seen)-1]; last != 0 {
		t.Fatalf("final progress %v, want 0", last)
	}
}
