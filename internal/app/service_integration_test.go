package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tasklytics/internal/adapters/http/api"
	service "github.com/okian/tasklytics/internal/app"
)

// upstreamStub serves whatever body is currently stored.
type upstreamStub struct {
	status atomic.Int32
	body   atomic.Value
	hits   atomic.Int32
}

func newUpstreamStub(status int, body string) *upstreamStub {
	u := &upstreamStub{}
	u.set(status, body)
	return u
}

func (u *upstreamStub) set(status int, body string) {
	u.status.Store(int32(status)) //nolint:gosec // test status codes
	u.body.Store(body)
}

func (u *upstreamStub) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	u.hits.Add(1)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(u.status.Load()))
	_, _ = io.WriteString(w, u.body.Load().(string))
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test helper
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func post(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil) //nolint:noctx // test helper
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service wired to a live upstream and the HTTP API", t, func() {
		stub := newUpstreamStub(http.StatusOK, `{"data":[
			{"category":"Electronics","latest":12500,"previous":11000,"growth":13.6,"date":"2024-05-01"},
			{"category":"Books","latest":2500,"previous":2600,"date":"2024-04-30"}
		]}`)
		upstreamSrv := httptest.NewServer(stub)
		defer upstreamSrv.Close()

		svc := service.New(
			service.WithEndpoint(upstreamSrv.URL),
			service.WithFetchTimeout(2*time.Second),
			service.WithBreaker(3, time.Minute),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithReloadLimit(0, 1)).Register(ctx, mux)
		apiSrv := httptest.NewServer(mux)
		defer apiSrv.Close()

		Convey("When the page is requested", func() {
			code, body := get(t, apiSrv.URL+"/")

			Convey("Then it should render the upstream data", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "Latest Update: 2024-05-01")
				So(body, ShouldContainSubstring, "<td>Electronics</td><td>12500</td><td>11000</td><td>13.6</td>")
				So(body, ShouldContainSubstring, "<td>Books</td><td>2500</td><td>2600</td><td>--</td>")
				So(body, ShouldContainSubstring, "Category &#39;Electronics&#39; leads with 12,500")
				So(strings.Count(body, "new Chart("), ShouldEqual, 1)
			})
		})

		Convey("When the data API is requested", func() {
			code, body := get(t, apiSrv.URL+"/api/data")

			Convey("Then it should return the snapshot", func() {
				So(code, ShouldEqual, http.StatusOK)
				var snap map[string]interface{}
				So(json.Unmarshal([]byte(body), &snap), ShouldBeNil)
				So(snap["outcome"], ShouldEqual, "rendered")
				So(len(snap["data"].([]interface{})), ShouldEqual, 2)
			})
		})

		Convey("When the upstream starts failing and the page is reloaded", func() {
			stub.set(http.StatusInternalServerError, `oops`)
			So(post(t, apiSrv.URL+"/reload"), ShouldEqual, http.StatusBadGateway)

			Convey("Then the page should show the failure message and clear the summary", func() {
				_, body := get(t, apiSrv.URL+"/")
				So(body, ShouldContainSubstring, `<td colspan="4">Failed to load data. Check API or permissions.</td>`)
				So(body, ShouldContainSubstring, `<h1 id="countryTitle">No Data</h1>`)
				So(body, ShouldNotContainSubstring, "<td>Electronics</td>")
			})
		})

		Convey("When the upstream keeps failing past the breaker threshold", func() {
			stub.set(http.StatusServiceUnavailable, `down`)
			for i := 0; i < 5; i++ {
				_ = post(t, apiSrv.URL+"/reload")
			}

			Convey("Then the breaker should stop calling the upstream", func() {
				So(stub.hits.Load(), ShouldEqual, int32(1+3))
				So(svc.GetStats()["breakerState"], ShouldEqual, "open")
			})
		})

		Convey("When the upstream returns an empty list", func() {
			stub.set(http.StatusOK, `{"data":[]}`)
			So(post(t, apiSrv.URL+"/reload"), ShouldEqual, http.StatusOK)

			Convey("Then the page should show the empty-result message", func() {
				_, body := get(t, apiSrv.URL+"/")
				So(body, ShouldContainSubstring, `<td colspan="4">No data available or API issue.</td>`)
			})
		})

		Convey("When metrics are scraped", func() {
			code, body := get(t, apiSrv.URL+"/healthz")

			Convey("Then the load cycle counter should be exported", func() {
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, "tasklytics_dashboard_load_cycles_total")
			})
		})
	})
}
