package kie

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/bardoun7894/basplast/internal/domain"
)

func noSleep(context.Context, time.Duration) error { return nil }

// scriptedFetch returns bodies[i] on call i and repeats the last one afterwards.
func scriptedFetch(calls *int32, bodies ...string) FetchFunc {
	return func(ctx context.Context, path string) ([]byte, error) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n >= len(bodies) {
			n = len(bodies) - 1
		}
		if bodies[n] == "" {
			return nil, errors.New("connection reset")
		}
		return []byte(bodies[n]), nil
	}
}

const (
	jobsPending = `{"code":200,"data":{"state":"generating"}}`
	jobsSuccess = `{"code":200,"data":{"state":"success","resultJson":"{\"resultUrls\":[\"done.png\"]}"}}`
)

func TestPollSucceedsAfterPendingAttempts(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.IntRange(0, standardPolicy.MaxAttempts-1).Draw(rt, "pending")
		bodies := make([]string, 0, k+1)
		for i := 0; i < k; i++ {
			bodies = append(bodies, jobsPending)
		}
		bodies = append(bodies, jobsSuccess)

		var calls int32
		var sleeps int32
		sleep := func(context.Context, time.Duration) error {
			atomic.AddInt32(&sleeps, 1)
			return nil
		}
		p := NewPoller(scriptedFetch(&calls, bodies...), sleep, nil, nil, nil)
		urls, err := p.Poll(context.Background(), jobsAdapter{}, ModelFluxFlex, "task-1")
		if err != nil {
			rt.Fatalf("Poll: %v", err)
		}
		if !reflect.DeepEqual(urls, []string{"done.png"}) {
			rt.Fatalf("urls = %#v", urls)
		}
		if int(calls) != k+1 {
			rt.Fatalf("status calls = %d, want %d", calls, k+1)
		}
		if int(sleeps) != k {
			rt.Fatalf("sleeps = %d, want %d", sleeps, k)
		}
	})
}

func TestPollTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	tests := []struct {
		adapter Adapter
		body    string
		want    int
	}{
		{adapter: jobsAdapter{}, body: jobsPending, want: 60},
		{adapter: kontextAdapter{}, body: `{"code":200,"data":{"successFlag":0}}`, want: 60},
		{adapter: midjourneyAdapter{}, body: `{"code":200,"data":{"successFlag":0}}`, want: 90},
	}
	for _, tc := range tests {
		t.Run(string(tc.adapter.Family()), func(t *testing.T) {
			var calls int32
			p := NewPoller(scriptedFetch(&calls, tc.body), noSleep, nil, nil, nil)
			_, err := p.Poll(context.Background(), tc.adapter, "model", "task")
			if !errors.Is(err, domain.ErrTimeout) {
				t.Fatalf("err = %v, want timeout", err)
			}
			if int(calls) != tc.want {
				t.Fatalf("status calls = %d, want %d", calls, tc.want)
			}
		})
	}
}

func TestPollIntervalsPerFamily(t *testing.T) {
	for _, tc := range []struct {
		adapter Adapter
		want    time.Duration
	}{
		{jobsAdapter{}, 2 * time.Second},
		{kontextAdapter{}, 2 * time.Second},
		{midjourneyAdapter{}, 3 * time.Second},
	} {
		var seen []time.Duration
		sleep := func(_ context.Context, d time.Duration) error {
			seen = append(seen, d)
			return nil
		}
		var calls int32
		p := NewPoller(scriptedFetch(&calls, `{"code":200,"data":{}}`), sleep, map[Family]PollPolicy{}, nil, nil)
		_, _ = p.Poll(context.Background(), tc.adapter, "m", "t")
		for _, d := range seen {
			if d != tc.want {
				t.Fatalf("%s interval = %s, want %s", tc.adapter.Family(), d, tc.want)
			}
		}
		if len(seen) != tc.adapter.Policy().MaxAttempts-1 {
			t.Fatalf("%s sleeps = %d", tc.adapter.Family(), len(seen))
		}
	}
}

func TestPollFailureStopsImmediately(t *testing.T) {
	var calls int32
	p := NewPoller(scriptedFetch(&calls, jobsPending, `{"code":200,"data":{"state":"fail","failMsg":"content policy"}}`, jobsSuccess), noSleep, nil, nil, nil)
	_, err := p.Poll(context.Background(), jobsAdapter{}, ModelNanoPro, "task-9")
	if !errors.Is(err, domain.ErrTaskFailed) {
		t.Fatalf("err = %v, want task failed", err)
	}
	var taskErr *domain.TaskError
	if !errors.As(err, &taskErr) || taskErr.Message != "content policy" || taskErr.TaskID != "task-9" {
		t.Fatalf("task error = %#v", taskErr)
	}
	if calls != 2 {
		t.Fatalf("status calls = %d, want 2", calls)
	}
}

func TestPollRetriesTransientResponses(t *testing.T) {
	var calls int32
	p := NewPoller(scriptedFetch(&calls,
		"",
		"<html>502</html>",
		`{"code":200,"data":{"state":"success","resultJson":[1,2]}}`,
		`{"code":500,"msg":"busy","data":null}`,
		jobsSuccess,
	), noSleep, nil, nil, nil)
	urls, err := p.Poll(context.Background(), jobsAdapter{}, ModelFluxFlex, "task")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"done.png"}) || calls != 5 {
		t.Fatalf("urls=%v calls=%d", urls, calls)
	}
}

func TestPollEmptySuccessIsNotAnError(t *testing.T) {
	var calls int32
	p := NewPoller(scriptedFetch(&calls, `{"code":200,"data":{"state":"success","resultJson":null}}`), noSleep, nil, nil, nil)
	urls, err := p.Poll(context.Background(), jobsAdapter{}, ModelFluxFlex, "task")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if urls == nil || len(urls) != 0 {
		t.Fatalf("urls = %#v, want empty non-nil", urls)
	}
}

func TestPollPolicyOverride(t *testing.T) {
	var calls int32
	p := NewPoller(scriptedFetch(&calls, jobsPending), noSleep, map[Family]PollPolicy{FamilyJobs: {Interval: time.Millisecond, MaxAttempts: 3}}, nil, nil)
	_, err := p.Poll(context.Background(), jobsAdapter{}, ModelFluxFlex, "task")
	if !errors.Is(err, domain.ErrTimeout) || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestPollStopsWhenSleepFails(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPoller(scriptedFetch(&calls, jobsPending), nil, nil, nil, nil)
	_, err := p.Poll(ctx, jobsAdapter{}, ModelFluxFlex, "task")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func ExamplePoller_Poll() {
	var calls int32
	p := NewPoller(scriptedFetch(&calls, jobsPending, jobsSuccess), noSleep, nil, nil, nil)
	urls, err := p.Poll(context.Background(), jobsAdapter{}, ModelFluxFlex, "task")
	fmt.Println(urls, err, calls)
	// Output: [done.png] <nil> 2
}
