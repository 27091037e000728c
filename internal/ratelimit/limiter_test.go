package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckSubmit_Cooldown(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     60 * time.Second,
		SubmitMaxPerHour:   5,
		SubmitMaxIPPerHour: 20,
		Clock:              clock,
	})
	defer limiter.Close()

	identifier := "test@example.com"
	ip := "192.168.1.1"

	// First request should be allowed
	result := limiter.CheckSubmit(identifier, ip)
	if !result.Allowed {
		t.Errorf("First request should be allowed, got blocked: %s", result.Reason)
	}
	limiter.RecordSubmit(identifier, ip)

	// Second request within cooldown should be blocked
	clock.Advance(30 * time.Second)
	result = limiter.CheckSubmit(identifier, ip)
	if result.Allowed {
		t.Error("Second request within cooldown should be blocked")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected reason 'cooldown', got '%s'", result.Reason)
	}
	if result.RetryAfter != 30*time.Second {
		t.Errorf("Expected RetryAfter 30s, got %v", result.RetryAfter)
	}

	// After cooldown expires, should be allowed
	clock.Advance(31 * time.Second)
	result = limiter.CheckSubmit(identifier, ip)
	if !result.Allowed {
		t.Errorf("Request after cooldown should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckSubmit_HourlyLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     1 * time.Millisecond,
		SubmitMaxPerHour:   3,
		SubmitMaxIPPerHour: 20,
		Clock:              clock,
	})
	defer limiter.Close()

	identifier := "hourly@example.com"
	ip := "192.168.1.2"

	// First 3 requests should be allowed
	for i := 0; i < 3; i++ {
		clock.Advance(1 * time.Second)
		result := limiter.CheckSubmit(identifier, ip)
		if !result.Allowed {
			t.Errorf("Request %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordSubmit(identifier, ip)
	}

	// 4th request should be blocked (hourly limit)
	clock.Advance(1 * time.Second)
	result := limiter.CheckSubmit(identifier, ip)
	if result.Allowed {
		t.Error("4th request should be blocked (hourly limit)")
	}
	if result.Reason != "hourly_limit" {
		t.Errorf("Expected reason 'hourly_limit', got '%s'", result.Reason)
	}

	// After hour passes, should be allowed again
	clock.Advance(1 * time.Hour)
	result = limiter.CheckSubmit(identifier, ip)
	if !result.Allowed {
		t.Errorf("Request after hour should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckSubmit_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     1 * time.Millisecond,
		SubmitMaxPerHour:   100,
		SubmitMaxIPPerHour: 2,
		Clock:              clock,
	})
	defer limiter.Close()

	ip := "192.168.1.3"

	// First 2 requests from different identifiers should be allowed
	for i := 0; i < 2; i++ {
		identifier := "user" + string(rune('a'+i)) + "@example.com"
		clock.Advance(1 * time.Second)
		result := limiter.CheckSubmit(identifier, ip)
		if !result.Allowed {
			t.Errorf("Request %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordSubmit(identifier, ip)
	}

	// 3rd request from same IP should be blocked
	clock.Advance(1 * time.Second)
	result := limiter.CheckSubmit("userc@example.com", ip)
	if result.Allowed {
		t.Error("3rd request from same IP should be blocked")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("Expected reason 'ip_hourly_limit', got '%s'", result.Reason)
	}
}

func TestCheckSubmit_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     60 * time.Second,
		SubmitMaxPerHour:   5,
		SubmitMaxIPPerHour: 20,
		Clock:              clock,
	})
	defer limiter.Close()

	ip := "192.168.1.1"

	// First request with lowercase
	result := limiter.CheckSubmit("user@example.com", ip)
	if !result.Allowed {
		t.Error("First request should be allowed")
	}
	limiter.RecordSubmit("user@example.com", ip)

	// Second request with UPPERCASE should be blocked (same identifier)
	result = limiter.CheckSubmit("USER@EXAMPLE.COM", ip)
	if result.Allowed {
		t.Error("Request with different case should be blocked (same identifier)")
	}
	if result.Reason != "cooldown" {
		t.Errorf("Expected reason 'cooldown', got '%s'", result.Reason)
	}

	// Mixed case should also be blocked
	result = limiter.CheckSubmit("User@Example.Com", ip)
	if result.Allowed {
		t.Error("Request with mixed case should be blocked")
	}
}

func TestCheckLogin_MaxAttempts(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxFailures:  3,
		LoginLockout:      5 * time.Minute,
		LoginMaxIPPerHour: 30,
		Clock:             clock,
	})
	defer limiter.Close()

	identifier := "verify@example.com"
	ip := "192.168.1.4"

	// First 3 attempts should be allowed, recording each
	for i := 0; i < 3; i++ {
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		lockedOut := limiter.RecordLoginFailure(identifier, ip)
		if i < 2 && lockedOut {
			t.Errorf("Attempt %d should not trigger lockout", i+1)
		}
		if i == 2 && !lockedOut {
			t.Error("3rd attempt should trigger lockout")
		}
	}

	// 4th attempt should be blocked (locked out after 3rd attempt triggered lockout)
	result := limiter.CheckLogin(identifier, ip)
	if result.Allowed {
		t.Error("4th attempt should be blocked (lockout)")
	}
	if result.Reason != "lockout" {
		t.Errorf("Expected reason 'lockout', got '%s'", result.Reason)
	}
	if result.RetryAfter != 5*time.Minute {
		t.Errorf("Expected RetryAfter 5m, got %v", result.RetryAfter)
	}

	// After lockout expires, should be allowed
	clock.Advance(5*time.Minute + 1*time.Second)
	result = limiter.CheckLogin(identifier, ip)
	if !result.Allowed {
		t.Errorf("Attempt after lockout should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckLogin_ResetOnSuccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxFailures:  3,
		LoginLockout:      5 * time.Minute,
		LoginMaxIPPerHour: 30,
		Clock:             clock,
	})
	defer limiter.Close()

	identifier := "reset@example.com"
	ip := "192.168.1.5"

	// Make 2 failed attempts
	for i := 0; i < 2; i++ {
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
		limiter.RecordLoginFailure(identifier, ip)
	}

	// Reset on successful verification
	limiter.ResetLoginFailures(identifier)

	// Should be able to make 3 more attempts
	for i := 0; i < 3; i++ {
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d after reset should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordLoginFailure(identifier, ip)
	}

	// 4th should be blocked
	result := limiter.CheckLogin(identifier, ip)
	if result.Allowed {
		t.Error("4th attempt after reset should be blocked")
	}
}

func TestCheckLogin_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		LoginMaxFailures:  100,
		LoginLockout:      5 * time.Minute,
		LoginMaxIPPerHour: 2,
		Clock:             clock,
	})
	defer limiter.Close()

	ip := "192.168.1.6"

	// First 2 requests from different identifiers should be allowed
	for i := 0; i < 2; i++ {
		identifier := "verifyip" + string(rune('a'+i)) + "@example.com"
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Request %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordLoginFailure(identifier, ip)
	}

	// 3rd request from same IP should be blocked
	result := limiter.CheckLogin("verifyipc@example.com", ip)
	if result.Allowed {
		t.Error("3rd verify request from same IP should be blocked")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("Expected reason 'ip_hourly_limit', got '%s'", result.Reason)
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"JOHN.DOE@EXAMPLE.COM", "jo***@example.com"}, // Normalized to lowercase
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"+15551234567", "***4567"},
		{"5551234567", "***4567"},
		{"123", "***"},
		{"", "***"},
		{"  User@Example.Com  ", "us***@example.com"}, // Trimmed and lowercased
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeIdentifier(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SubmitCooldown != 30*time.Second {
		t.Errorf("SubmitCooldown = %v, want 30s", cfg.SubmitCooldown)
	}
	if cfg.SubmitMaxPerHour != 5 {
		t.Errorf("SubmitMaxPerHour = %d, want 5", cfg.SubmitMaxPerHour)
	}
	if cfg.SubmitMaxIPPerHour != 20 {
		t.Errorf("SubmitMaxIPPerHour = %d, want 20", cfg.SubmitMaxIPPerHour)
	}
	if cfg.LoginMaxFailures != 5 {
		t.Errorf("LoginMaxFailures = %d, want 5", cfg.LoginMaxFailures)
	}
	if cfg.LoginLockout != 15*time.Minute {
		t.Errorf("LoginLockout = %v, want 15m", cfg.LoginLockout)
	}
	if cfg.LoginMaxIPPerHour != 30 {
		t.Errorf("LoginMaxIPPerHour = %d, want 30", cfg.LoginMaxIPPerHour)
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter == nil {
		t.Error("New(nil) should return a valid limiter")
	}
	if limiter.config.SubmitCooldown != 30*time.Second {
		t.Error("New(nil) should use default config")
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.CheckSubmit("test@example.com", "1.2.3.4")

	// Close should not hang
	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     1 * time.Millisecond,
		SubmitMaxPerHour:   1000,
		SubmitMaxIPPerHour: 1000,
		LoginMaxFailures:   1000,
		LoginLockout:       5 * time.Minute,
		LoginMaxIPPerHour:  1000,
		Clock:              clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	numGoroutines := 100
	numOps := 100

	// Concurrent submissions
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			identifier := "user@example.com"
			ip := "192.168.1.1"
			for j := 0; j < numOps; j++ {
				result := limiter.CheckSubmit(identifier, ip)
				if result.Allowed {
					limiter.RecordSubmit(identifier, ip)
				}
			}
		}(i)
	}

	// Concurrent login failures
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			identifier := "verify@example.com"
			ip := "192.168.1.2"
			for j := 0; j < numOps; j++ {
				result := limiter.CheckLogin(identifier, ip)
				if result.Allowed {
					limiter.RecordLoginFailure(identifier, ip)
				}
			}
		}(i)
	}

	// Concurrent resets
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				limiter.ResetLoginFailures("verify@example.com")
			}
		}(i)
	}

	wg.Wait()
	// If we get here without race detector complaints, test passes
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:172.16.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:8.8.8.8", false},   // Public IP in IPv4-mapped format
		{"::ffff:1.1.1.1", false},   // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false}, // Google DNS IPv6
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}

func TestCheckAndRecord_SeparateOps(t *testing.T) {
	// Verify that Check doesn't consume quota - only Record does
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     60 * time.Second,
		SubmitMaxPerHour:   1,
		SubmitMaxIPPerHour: 100,
		Clock:              clock,
	})
	defer limiter.Close()

	identifier := "test@example.com"
	ip := "192.168.1.1"

	// Multiple checks should all be allowed (no recording)
	for i := 0; i < 10; i++ {
		result := limiter.CheckSubmit(identifier, ip)
		if !result.Allowed {
			t.Errorf("Check %d should be allowed without prior Record", i+1)
		}
	}

	// Now record once
	limiter.RecordSubmit(identifier, ip)

	// Next check should be blocked (cooldown)
	result := limiter.CheckSubmit(identifier, ip)
	if result.Allowed {
		t.Error("Check after Record should be blocked")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "1"},
		{in: 300 * time.Millisecond, want: "1"},
		{in: 30 * time.Second, want: "30"},
		{in: 30*time.Second + time.Millisecond, want: "31"},
		{in: 15 * time.Minute, want: "900"},
	}
	for _, tt := range tests {
		if got := RetryAfterSeconds(tt.in); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginAndSubmitCountersAreIndependent(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		SubmitCooldown:     time.Minute,
		SubmitMaxPerHour:   5,
		SubmitMaxIPPerHour: 20,
		LoginMaxFailures:   2,
		LoginLockout:       time.Minute,
		LoginMaxIPPerHour:  30,
		Clock:              clock,
	})
	defer limiter.Close()

	identifier := "buyer@example.com"
	ip := "198.51.100.7"

	limiter.RecordLoginFailure(identifier, ip)
	limiter.RecordLoginFailure(identifier, ip)
	if result := limiter.CheckLogin(identifier, ip); result.Allowed {
		t.Fatal("login should be locked after two failures")
	}
	if result := limiter.CheckSubmit(identifier, ip); !result.Allowed {
		t.Fatalf("submission should not be affected by login lockout: %s", result.Reason)
	}
}
