package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrospectorVerify(t *testing.T) {
	var gotForm, gotContentType string
	srv := newStatusServer(t, func(w http.ResponseWriter, r *http.Request) {
		id, secret, _ := r.BasicAuth()
		if id != testClientID || secret != testClientSecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm.Get("token") + "|" + r.PostForm.Get("token_type_hint")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{
			"active": true,
			"scope": "read write",
			"client_id": "claude",
			"username": "jdoe",
			"token_type": "Bearer",
			"exp": 4102444800,
			"iat": 1700000000,
			"nbf": 1700000000,
			"sub": "user-1",
			"aud": ["api://X", "api://Y"],
			"iss": "https://auth.example.com",
			"jti": "abc-123",
			"custom": {"ignored": true}
		}`))
	})
	introspector := NewIntrospector(testConfig(srv.URL), nil)

	info, err := introspector.Verify(t.Context(), testToken)

	require.NoError(t, err)
	assert.Equal(t, testToken+"|access_token", gotForm)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, &TokenInfo{
		Active:    true,
		Scope:     "read write",
		ClientID:  "claude",
		Username:  "jdoe",
		TokenType: "Bearer",
		Exp:       4102444800,
		Iat:       1700000000,
		Nbf:       1700000000,
		Sub:       "user-1",
		Aud:       Audience{"api://X", "api://Y"},
		Iss:       testAuthServerURL,
		Jti:       "abc-123",
	}, info)
	assert.Equal(t, []string{"read", "write"}, info.Scopes())
}

func TestIntrospectorVerifyFractionalTimestamps(t *testing.T) {
	tests := map[string]struct {
		body        string
		expectedExp int64
		expectedIat int64
	}{
		"fractional exp is truncated": {
			body:        `{"active":true,"scope":"read","exp":4102444800.5}`,
			expectedExp: 4102444800,
		},
		"exponent notation": {
			body:        `{"active":true,"exp":4.1024448e9,"iat":1.7e9}`,
			expectedExp: 4102444800,
			expectedIat: 1700000000,
		},
		"null timestamps": {
			body: `{"active":true,"exp":null,"iat":null,"nbf":null}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newStatusServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			info, err := NewIntrospector(testConfig(srv.URL), nil).Verify(t.Context(), testToken)

			require.NoError(t, err)
			assert.True(t, info.Active)
			assert.Equal(t, tt.expectedExp, info.Exp)
			assert.Equal(t, tt.expectedIat, info.Iat)
		})
	}
}

func TestNumericDateRejectsNonNumbers(t *testing.T) {
	var d numericDate
	assert.Error(t, json.Unmarshal([]byte(`"tomorrow"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestIntrospectorVerifyFailures(t *testing.T) {
	tests := map[string]struct {
		handler       http.HandlerFunc
		expectedError error
	}{
		"inactive": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"active": false}`))
			},
			expectedError: ErrInactiveToken,
		},
		"non-2xx": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"active": true}`))
			},
			expectedError: ErrIntrospectionUnavailable,
		},
		"client authentication rejected": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			expectedError: ErrIntrospectionUnavailable,
		},
		"malformed JSON": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>oops</html>`))
			},
			expectedError: ErrIntrospectionUnavailable,
		},
		"missing active": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"scope": "read"}`))
			},
			expectedError: ErrIntrospectionUnavailable,
		},
		"active has wrong type": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"active": "true"}`))
			},
			expectedError: ErrIntrospectionUnavailable,
		},
		"timeout": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			expectedError: ErrIntrospectionUnavailable,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newStatusServer(t, tt.handler)
			cfg := testConfig(srv.URL)
			cfg.IntrospectionTimeout = 50 * time.Millisecond
			introspector := NewIntrospector(cfg, nil)

			info, err := introspector.Verify(t.Context(), testToken)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, info)
		})
	}
}

func TestIntrospectorNetworkError(t *testing.T) {
	srv := newStatusServer(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()
	introspector := NewIntrospector(testConfig(url), nil)

	_, err := introspector.Verify(t.Context(), testToken)

	assert.ErrorIs(t, err, ErrIntrospectionUnavailable)
}

func TestIntrospectorCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := newStatusServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.Write([]byte(`{"active": true}`))
	})
	t.Cleanup(func() { close(release) })
	introspector := NewIntrospector(testConfig(srv.URL), nil)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := introspector.Verify(ctx, testToken)

	assert.ErrorIs(t, err, ErrIntrospectionUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIntrospectorCoalescesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := newStatusServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"active": true, "sub": "user-1"}`))
	})
	introspector := NewIntrospector(testConfig(srv.URL), nil)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*TokenInfo, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := introspector.Verify(context.Background(), testToken)
			assert.NoError(t, err)
			results[i] = info
		}()
	}

	// give every caller time to join the in-flight call
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, info := range results {
		require.NotNil(t, info)
		assert.Equal(t, "user-1", info.Sub)
	}
}

func TestAudienceUnmarshal(t *testing.T) {
	tests := map[string]struct {
		body     string
		expected Audience
		wantErr  bool
	}{
		"string":       {body: `"api://X"`, expected: Audience{"api://X"}},
		"empty string": {body: `""`, expected: nil},
		"list":         {body: `["api://X","api://Y"]`, expected: Audience{"api://X", "api://Y"}},
		"number":       {body: `42`, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var aud Audience
			err := aud.UnmarshalJSON([]byte(tt.body))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, aud)
		})
	}
}

func TestTokenInfoExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.False(t, (&TokenInfo{}).Expired(now), "no exp never expires")
	assert.False(t, (&TokenInfo{Exp: now.Unix() + 1}).Expired(now))
	assert.True(t, (&TokenInfo{Exp: now.Unix()}).Expired(now))
	assert.True(t, (&TokenInfo{Exp: now.Unix() - 1}).Expired(now))
}
