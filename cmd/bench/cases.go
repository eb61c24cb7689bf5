// README: Bench cases: environment, schema, pricing examples, booking flow, seat race and quote throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"safari/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// The pricing cases assume the server was seeded from configs/pricing.seed.json.
func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				if err := infra.Migrate(ctx, r.db); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				for _, t := range []string{"pricing_configs", "bookings", "booking_events"} {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},

		httpCase("API: health", http.MethodGet, base+"/health", nil, http.StatusOK),
		httpCase("Pricing: current config", http.MethodGet, base+"/api/pricing", nil, http.StatusOK),

		quoteCase("Pricing: private 2 foreign basic morning", base, map[string]any{
			"reservationType": "private", "jeepType": "basic", "timeSlot": "morning",
			"guideOption": "driver", "visitorType": "foreign", "mealOption": "without", "people": 2,
		}, "9.00"),
		quoteCase("Pricing: shared 4 seats local driverGuide", base, map[string]any{
			"reservationType": "shared", "jeepType": "basic", "timeSlot": "morning",
			"guideOption": "driverGuide", "visitorType": "local", "mealOption": "without",
			"people": "2", "selectedSeats": "4",
		}, "29.71"),
		quoteCase("Pricing: non-numeric seats fall back to people", base, map[string]any{
			"reservationType": "shared", "jeepType": "basic", "timeSlot": "morning",
			"guideOption": "driverGuide", "visitorType": "local", "mealOption": "without",
			"people": 4, "selectedSeats": "four",
		}, "29.71"),
		httpCase("Pricing: 8 seats -> 400", http.MethodPost, base+"/api/pricing/quote", map[string]any{
			"reservationType": "shared", "jeepType": "basic", "timeSlot": "morning",
			"guideOption": "driver", "visitorType": "local", "mealOption": "without", "selectedSeats": 8,
		}, http.StatusBadRequest),

		{
			Name: "Booking: pending -> confirmed -> completed",
			Run: func(ctx context.Context, r *Runner) Result {
				return bookingFlow(ctx, r, base)
			},
		},
		{
			Name: "Concurrency: shared seats never oversold",
			Run: func(ctx context.Context, r *Runner) Result {
				return seatRace(ctx, r, base)
			},
		},
		{
			Name: "Perf: quote throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/pricing/quote", map[string]any{
					"reservationType": "shared", "jeepType": "luxury", "timeSlot": "fullDay",
					"guideOption": "separateGuide", "visitorType": "foreign", "mealOption": "with",
					"includeLunch": true, "selectedSeats": 3,
				})
			},
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, time.Since(start), err
}

func httpCase(name, method, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			code, _, latency, err := r.do(ctx, method, url, body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if code != want {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d", code, want)}
			}
			return Result{Status: statusPass, Latency: latency}
		},
	}
}

func quoteCase(name, base string, body map[string]any, wantTotal string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			code, raw, latency, err := r.do(ctx, http.MethodPost, base+"/api/pricing/quote", body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if code != http.StatusOK {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
			}
			var q struct {
				Price struct {
					TotalPrice json.Number `json:"totalPrice"`
				} `json:"price"`
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			if err := dec.Decode(&q); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if q.Price.TotalPrice.String() != wantTotal {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("total=%s want=%s", q.Price.TotalPrice, wantTotal)}
			}
			return Result{Status: statusPass, Latency: latency}
		},
	}
}

// benchDate picks a far-future day so repeated runs do not share capacity.
func benchDate() string {
	return time.Now().AddDate(2, 0, rand.Intn(3000)).Format("2006-01-02")
}

func bookingBody(date string, selection map[string]any) map[string]any {
	return map[string]any{
		"tourDate":  date,
		"customer":  map[string]any{"name": "Bench Runner", "email": "bench@example.com"},
		"notes":     "created by cmd/bench",
		"selection": selection,
	}
}

func bookingFlow(ctx context.Context, r *Runner, base string) Result {
	code, raw, _, err := r.do(ctx, http.MethodPost, base+"/api/bookings", bookingBody(benchDate(), map[string]any{
		"reservationType": "private", "jeepType": "superLuxury", "timeSlot": "extended",
		"guideOption": "separateGuide", "visitorType": "foreign", "mealOption": "with",
		"includeBreakfast": true, "people": 3,
	}))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusCreated {
		return Result{Status: statusFail, Note: fmt.Sprintf("create status=%d", code)}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}

	steps := []struct {
		path string
		want int
	}{
		{"/complete", http.StatusConflict},
		{"/confirm", http.StatusOK},
		{"/complete", http.StatusOK},
		{"/cancel", http.StatusConflict},
	}
	start := time.Now()
	for _, s := range steps {
		code, _, _, err := r.do(ctx, http.MethodPost, base+"/api/bookings/"+created.ID+s.path, nil)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if code != s.want {
			return Result{Status: statusFail, Note: fmt.Sprintf("%s status=%d want=%d", s.path, code, s.want)}
		}
	}
	return Result{Status: statusPass, Latency: time.Since(start), Note: "id=" + created.ID}
}

// seatRace fires concurrent 2-seat shared bookings at one date, slot and
// tier. At most 3 may succeed with a 7-seat jeep.
func seatRace(ctx context.Context, r *Runner, base string) Result {
	body := bookingBody(benchDate(), map[string]any{
		"reservationType": "shared", "jeepType": "luxury", "timeSlot": "afternoon",
		"guideOption": "driver", "visitorType": "local", "mealOption": "without", "selectedSeats": 2,
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, full, other := 0, 0, 0
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, _, err := r.do(ctx, http.MethodPost, base+"/api/bookings", body)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				other++
			case code == http.StatusCreated:
				created++
			case code == http.StatusConflict:
				full++
			default:
				other++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("created=%d full=%d other=%d", created, full, other)
	if created > 3 || other > 0 {
		return Result{Status: statusFail, Note: note}
	}
	return Result{Status: statusPass, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				code, _, _, err := r.do(ctx, http.MethodPost, url, payload)
				mu.Lock()
				if err != nil || code != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}
