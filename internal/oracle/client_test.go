package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graphtrust/graphtrust/internal/config"
	"github.com/graphtrust/graphtrust/internal/identity"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(config.OracleConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func jsonBody(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestDistance(t *testing.T) {
	idA, idB := identity.MustParse(keyA), identity.MustParse(keyB)

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/distance" {
			t.Errorf("path = %q, want /distance", r.URL.Path)
		}
		if got := r.URL.Query().Get("from"); got != keyA {
			t.Errorf("from = %q", got)
		}
		if got := r.URL.Query().Get("to"); got != keyB {
			t.Errorf("to = %q", got)
		}
		jsonBody(w, `{"hops": 2, "paths": 3}`)
	})

	hops, err := c.Distance(context.Background(), idA, idB)
	if err != nil {
		t.Fatalf("Distance() error = %v", err)
	}
	if hops == nil || *hops != 2 {
		t.Errorf("hops = %v, want 2", hops)
	}
}

func TestDistance_NullHops(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(w, `{"hops": null}`)
	})
	hops, err := c.Distance(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if hops != nil {
		t.Errorf("hops = %v, want nil (no path)", hops)
	}
}

func TestDistance_NotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	hops, err := c.Distance(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
	if err != nil {
		t.Fatalf("404 must not be an error, got %v", err)
	}
	if hops != nil {
		t.Errorf("hops = %v, want nil on 404", hops)
	}
}

func TestDistance_ServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.Distance(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if serr.Status != http.StatusInternalServerError || serr.Endpoint != "/distance" {
		t.Errorf("StatusError = %+v", serr)
	}
}

func TestDistanceInfo_ValidationFailurePropagates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		jsonBody(w, `{"hops": -5}`)
	})
	_, err := c.DistanceInfo(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestDistanceBatch(t *testing.T) {
	idA := identity.MustParse(keyA)
	targets := []identity.Identity{identity.MustParse(keyB), identity.MustParse(keyC)}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/distance/batch" {
			t.Errorf("%s %s, want POST /distance/batch", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req struct {
			From    string   `json:"from"`
			Targets []string `json:"targets"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.From != keyA || len(req.Targets) != 2 || req.Targets[0] != keyB {
			t.Errorf("request = %+v", req)
		}
		jsonBody(w, `{"`+keyB+`": 1, "`+keyC+`": null}`)
	})

	res, err := c.DistanceBatch(context.Background(), idA, targets)
	if err != nil {
		t.Fatalf("DistanceBatch() error = %v", err)
	}
	if v := res[identity.Identity(keyB)]; v == nil || *v != 1 {
		t.Errorf("batch[keyB] = %v, want 1", v)
	}
	if v, ok := res[identity.Identity(keyC)]; !ok || v != nil {
		t.Errorf("batch[keyC] = %v (present=%v), want present nil", v, ok)
	}
}

func TestDistanceBatch_NotFoundIsAnError(t *testing.T) {
	// POST has no 404 special case — it propagates like any other status.
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.DistanceBatch(context.Background(), identity.MustParse(keyA), nil)

	var serr *StatusError
	if !errors.As(err, &serr) || serr.Status != http.StatusNotFound {
		t.Fatalf("error = %v, want *StatusError with 404", err)
	}
}

func TestStats_RawPassthrough(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("path = %q", r.URL.Path)
		}
		// Deliberately schema-less, including shapes the validators
		// would reject elsewhere.
		jsonBody(w, `{"users": 1234, "nested": {"weird": [1, "two"]}}`)
	})

	got, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	obj, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("stats body type = %T", got)
	}
	if obj["users"] != float64(1234) {
		t.Errorf("users = %v", obj["users"])
	}
}

func TestStats_NotFoundIsAnError(t *testing.T) {
	// Stats is not a per-node lookup — a 404 carries no domain meaning
	// and must surface as a status error, not a silent empty value.
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.Stats(context.Background())

	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if serr.Status != http.StatusNotFound || serr.Endpoint != "/stats" {
		t.Errorf("StatusError = %+v, want 404 on /stats", serr)
	}
}

func TestHealthy(t *testing.T) {
	t.Run("2xx is healthy", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		if !c.Healthy(context.Background()) {
			t.Error("Healthy() = false for 204")
		}
	})

	t.Run("error status is unhealthy", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		if c.Healthy(context.Background()) {
			t.Error("Healthy() = true for 503")
		}
	})

	t.Run("connection failure is unhealthy, not an error", func(t *testing.T) {
		// Port 1 is never listening; the probe must swallow the failure.
		c, err := New(config.OracleConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if c.Healthy(context.Background()) {
			t.Error("Healthy() = true for an unreachable oracle")
		}
	})
}

func TestFollows(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("pubkey"); got != keyA {
				t.Errorf("pubkey = %q", got)
			}
			jsonBody(w, `{"follows": ["`+keyB+`"]}`)
		})
		got, err := c.Follows(context.Background(), identity.MustParse(keyA))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(got) != 1 || got[0] != identity.Identity(keyB) {
			t.Errorf("follows = %v", got)
		}
	})

	t.Run("404 is an empty list", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		got, err := c.Follows(context.Background(), identity.MustParse(keyA))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("follows on 404 = %v, want empty slice", got)
		}
	})
}

func TestCommonFollows_NotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	got, err := c.CommonFollows(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("common follows on 404 = %v, want empty slice", got)
	}
}

func TestPath(t *testing.T) {
	t.Run("route found", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			jsonBody(w, `{"path": ["`+keyA+`", "`+keyC+`", "`+keyB+`"]}`)
		})
		got, err := c.Path(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("path = %v", got)
		}
	})

	t.Run("null path", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			jsonBody(w, `{"path": null}`)
		})
		got, err := c.Path(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
		if err != nil || got != nil {
			t.Errorf("got %v, %v; want nil, nil", got, err)
		}
	})

	t.Run("404", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		got, err := c.Path(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB))
		if err != nil || got != nil {
			t.Errorf("got %v, %v; want nil, nil", got, err)
		}
	})
}

func TestNew_StripsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health (no double slash)", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(config.OracleConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !c.Healthy(context.Background()) {
		t.Error("Healthy() = false")
	}
}

func TestClient_APIKeyAuth(t *testing.T) {
	t.Setenv("ORACLE_TEST_KEY", "s3cr3t")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "s3cr3t" {
			t.Errorf("X-Api-Key = %q", got)
		}
		jsonBody(w, `{"hops": 1}`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(config.OracleConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Auth: config.AuthConfig{
			Mode:   "apikey",
			Header: "X-Api-Key",
			KeyEnv: "ORACLE_TEST_KEY",
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.Distance(context.Background(), identity.MustParse(keyA), identity.MustParse(keyB)); err != nil {
		t.Fatalf("Distance() error = %v", err)
	}
}
