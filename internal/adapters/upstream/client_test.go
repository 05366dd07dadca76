package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tasklytics/internal/adapters/upstream"
	"github.com/okian/tasklytics/internal/domain/model"
)

func serve(status int, body string, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestClientFetch(t *testing.T) {
	Convey("Given an upstream returning two records", t, func() {
		srv := serve(http.StatusOK, `{"data":[
			{"category":"A","latest":10,"previous":5,"date":"2024-01-01"},
			{"category":"B","latest":"2.50","previous":3,"growth":-16.7,"date":"2024-01-02"}
		]}`, nil)
		defer srv.Close()

		client := upstream.NewClient(srv.URL)

		Convey("When fetching", func() {
			payload, err := client.Fetch(context.Background())

			Convey("Then the payload should be decoded in order", func() {
				So(err, ShouldBeNil)
				So(len(payload.Data), ShouldEqual, 2)
				So(payload.Data[0].Category, ShouldEqual, "A")
				So(payload.Data[0].Growth.Valid, ShouldBeFalse)
				So(payload.Data[1].Latest.String(), ShouldEqual, "2.5")
				So(payload.Data[1].Growth.Valid, ShouldBeTrue)
				So(payload.Data[1].Growth.Decimal.String(), ShouldEqual, "-16.7")
			})
		})
	})

	Convey("Given an upstream returning an empty list", t, func() {
		srv := serve(http.StatusOK, `{"data":[]}`, nil)
		defer srv.Close()

		payload, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(err, ShouldBeNil)
		So(payload.Empty(), ShouldBeTrue)
	})

	Convey("Given an upstream omitting the data field", t, func() {
		srv := serve(http.StatusOK, `{"status":"ok"}`, nil)
		defer srv.Close()

		payload, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(err, ShouldBeNil)
		So(payload.Data, ShouldBeNil)
		So(payload.Empty(), ShouldBeTrue)
	})

	Convey("Given an upstream answering 403", t, func() {
		srv := serve(http.StatusForbidden, `{"error":"denied"}`, nil)
		defer srv.Close()

		_, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(errors.Is(err, upstream.ErrUnexpectedStatus), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "403")
	})

	Convey("Given an upstream returning HTML", t, func() {
		srv := serve(http.StatusOK, `<html>sign in</html>`, nil)
		defer srv.Close()

		_, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
	})

	Convey("Given a growth value that is not numeric", t, func() {
		srv := serve(http.StatusOK, `{"data":[{"category":"A","latest":1,"previous":1,"growth":"12%","date":"d"}]}`, nil)
		defer srv.Close()

		_, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
	})

	Convey("Given an unreachable upstream", t, func() {
		srv := serve(http.StatusOK, `{}`, nil)
		url := srv.URL
		srv.Close()

		_, err := upstream.NewClient(url).Fetch(context.Background())

		So(errors.Is(err, upstream.ErrRequest), ShouldBeTrue)
	})
}

func TestClientTimeout(t *testing.T) {
	Convey("Given a slow upstream", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		Convey("When the client timeout is shorter than the response", func() {
			client := upstream.NewClient(srv.URL, upstream.WithTimeout(50*time.Millisecond))
			_, err := client.Fetch(context.Background())

			Convey("Then the fetch should fail as a request error", func() {
				So(errors.Is(err, upstream.ErrRequest), ShouldBeTrue)
			})
		})

		Convey("When the caller cancels", func() {
			client := upstream.NewClient(srv.URL, upstream.WithTimeout(0))
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			_, err := client.Fetch(ctx)

			Convey("Then the fetch should fail with the context error", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}

func TestClientBreaker(t *testing.T) {
	Convey("Given a failing upstream and a breaker tripping after two failures", t, func() {
		var hits int32
		srv := serve(http.StatusInternalServerError, `oops`, &hits)
		defer srv.Close()

		client := upstream.NewClient(srv.URL, upstream.WithBreaker(2, time.Minute))

		_, err1 := client.Fetch(context.Background())
		_, err2 := client.Fetch(context.Background())
		_, err3 := client.Fetch(context.Background())

		Convey("Then the third call should fail fast without reaching the upstream", func() {
			So(errors.Is(err1, upstream.ErrUnexpectedStatus), ShouldBeTrue)
			So(errors.Is(err2, upstream.ErrUnexpectedStatus), ShouldBeTrue)
			So(errors.Is(err3, upstream.ErrBreakerOpen), ShouldBeTrue)
			So(atomic.LoadInt32(&hits), ShouldEqual, int32(2))
			So(client.State(), ShouldEqual, gobreaker.StateOpen)
		})
	})

	Convey("Given a disabled breaker", t, func() {
		var hits int32
		srv := serve(http.StatusBadGateway, `oops`, &hits)
		defer srv.Close()

		client := upstream.NewClient(srv.URL, upstream.WithBreaker(0, 0))
		for i := 0; i < 10; i++ {
			_, _ = client.Fetch(context.Background())
		}

		So(atomic.LoadInt32(&hits), ShouldEqual, int32(10))
		So(client.State(), ShouldEqual, gobreaker.StateClosed)
	})
}

type countingTransport struct {
	calls int32
}

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	atomic.AddInt32(&t.calls, 1)
	return http.DefaultTransport.RoundTrip(r)
}

func TestClientRejectsMissingValues(t *testing.T) {
	Convey("Given an upstream returning a record with a null latest", t, func() {
		srv := serve(http.StatusOK, `{"data":[{"category":"A","latest":null,"previous":5,"date":"d"}]}`, nil)
		defer srv.Close()

		_, err := upstream.NewClient(srv.URL).Fetch(context.Background())

		So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		So(errors.Is(err, model.ErrMissingValue), ShouldBeTrue)
	})
}

func TestClientWithHTTPClient(t *testing.T) {
	Convey("Given a caller-owned HTTP client without a timeout", t, func() {
		srv := serve(http.StatusOK, `{"data":[{"category":"A","latest":1,"previous":2,"date":"d"}]}`, nil)
		defer srv.Close()

		transport := &countingTransport{}
		hc := &http.Client{Transport: transport}
		client := upstream.NewClient(srv.URL,
			upstream.WithHTTPClient(hc),
			upstream.WithTimeout(time.Second),
		)

		Convey("When fetching through it", func() {
			payload, err := client.Fetch(context.Background())

			Convey("Then its transport should carry the request", func() {
				So(err, ShouldBeNil)
				So(len(payload.Data), ShouldEqual, 1)
				So(atomic.LoadInt32(&transport.calls), ShouldEqual, int32(1))
			})

			Convey("And the caller's client should keep its own settings", func() {
				So(hc.Timeout, ShouldEqual, time.Duration(0))
			})
		})
	})
}
