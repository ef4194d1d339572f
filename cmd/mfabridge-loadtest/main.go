// Command mfabridge-loadtest drives concurrent logins through an in-process
// engine and then reads the resulting sessions back from Redis.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/internal/otp"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/modules/static"
	"github.com/MrEthical07/mfabridge/modules/totp"
	"github.com/MrEthical07/mfabridge/password"
	"github.com/MrEthical07/mfabridge/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const loadSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func main() {
	var (
		users       = flag.Int("users", 64, "number of static users to provision")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers")
		ops         = flag.Int("ops", 5000, "operations per phase (login + session read)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "mfabridge:load:", "session key prefix")
		withTOTP    = flag.Bool("totp", true, "require a TOTP code after the password")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, err := buildEngine(*users, *withTOTP)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	store := session.NewStore(client, *prefix, time.Hour, false)

	ids := make([]string, 0, *ops)
	var idsMu sync.Mutex
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		fields := loginFields(r.Intn(*users), *withTOTP)
		outcome, err := engine.Authenticate(ctx, fields)
		if err != nil {
			return err
		}
		defer outcome.Wipe()
		sess := &session.Session{
			Username:  outcome.Username,
			Chain:     outcome.Chain,
			AttemptID: outcome.AttemptID,
		}
		if err := store.Create(ctx, sess); err != nil {
			return err
		}
		idsMu.Lock()
		ids = append(ids, sess.ID)
		idsMu.Unlock()
		return nil
	})

	var readStats phaseStats
	if len(ids) > 0 {
		readStats = runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
			_, err := store.Get(ctx, ids[r.Intn(len(ids))])
			return err
		})
	}

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("session-get", readStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: success=%d rejected=%d system_error=%d\n",
		snap.Counters[mfabridge.MetricLoginSuccess],
		snap.Counters[mfabridge.MetricLoginRejected],
		snap.Counters[mfabridge.MetricLoginSystemError],
	)
}

// buildEngine uses cheap Argon2 parameters so the run measures the chain and
// Redis rather than the hash.
func buildEngine(users int, withTOTP bool) (*mfabridge.Engine, error) {
	hasher, err := password.NewArgon2(password.Config{
		Memory:         1024,
		Time:           1,
		Parallelism:    1,
		SaltLength:     16,
		KeyLength:      32,
		MinSecretBytes: 10,
		MaxSecretBytes: password.DefaultMaxSecretBytes,
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]static.User, users)
	secrets := make(totp.StaticSecrets, users)
	for i := range accounts {
		hash, err := hasher.Hash([]byte(passwordFor(i)))
		if err != nil {
			return nil, err
		}
		accounts[i] = static.User{Username: userFor(i), PasswordHash: hash, Roles: []string{"member"}}
		secrets[userFor(i)] = loadSecret
	}

	pw, err := static.New(hasher, accounts)
	if err != nil {
		return nil, err
	}
	entries := []module.Entry{{Module: pw, Flag: module.Required}}
	if withTOTP {
		code, err := totp.New(totp.DefaultOptions(), secrets, nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, module.Entry{Module: code, Flag: module.Required})
	}
	chain, err := module.NewChain(mfabridge.DefaultChainName, entries...)
	if err != nil {
		return nil, err
	}
	return mfabridge.New().WithChain(chain).WithMetricsEnabled(true).Build()
}

func userFor(i int) string     { return fmt.Sprintf("user%04d", i) }
func passwordFor(i int) string { return fmt.Sprintf("load-password-%04d", i) }

func loginFields(i int, withTOTP bool) factor.Fields {
	fields := factor.Fields{
		"j_username": userFor(i),
		"j_password": passwordFor(i),
	}
	if withTOTP {
		secret, _ := otp.DecodeSecret(loadSecret)
		code, _ := otp.Code(secret, time.Now().Unix()/30, 6, "SHA1")
		fields["j_tokens[0]"] = code
	}
	return fields
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
