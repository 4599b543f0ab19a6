package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func replyWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}
}

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", URL: url, Timeout: 2 * time.Second})
}

func TestClientClassify(t *testing.T) {
	ctx := context.Background()
	in := classify.Input{Request: classify.Request{
		StudentName:  "Dana",
		Title:        "Regional hackathon",
		CategoryHint: model.CategoryResearch,
		Description:  "Won first place",
		Profile:      &model.ProfileSummary{Total: 1, ByCategory: map[model.Category]int{model.CategorySocial: 1}},
	}}

	Convey("Given an OpenRouter client", t, func() {
		Convey("When the reply is complete", func() {
			var got chatRequest
			var headers http.Header
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				headers = r.Header.Clone()
				_ = json.NewDecoder(r.Body).Decode(&got)
				replyWith(`{"category":"research","scale":"city","role_type":"winner","duration_months":2,
					"scores":{"category":20,"scale":10,"role":15,"duration":3.3},"total_score":48.3,
					"feedback":"Strong result.","missing_recommendations":["Try volunteering."]}`)(w, r)
			}))
			defer srv.Close()

			res, err := newTestClient(srv.URL).Classify(ctx, in)

			Convey("Then the result should be decoded", func() {
				So(err, ShouldBeNil)
				So(res.Category, ShouldEqual, model.CategoryResearch)
				So(res.Scale, ShouldEqual, model.ScaleCity)
				So(res.Role, ShouldEqual, model.RoleWinner)
				So(res.DurationMonths, ShouldEqual, 2)
				So(res.TotalScore, ShouldEqual, 48.3)
				So(res.MissingRecommendations, ShouldResemble, []string{"Try volunteering."})
				So(res.Provider, ShouldEqual, classify.ProviderOpenRouter)
			})

			Convey("Then the request should carry the payload and headers", func() {
				So(headers.Get("Authorization"), ShouldEqual, "Bearer test-key")
				So(headers.Get("Referer"), ShouldEqual, "https://socgpa.ai")
				So(headers.Get("X-Title"), ShouldEqual, "SocGPA.AI")
				So(got.Model, ShouldEqual, DefaultModel)
				So(got.Temperature, ShouldEqual, 0.2)
				So(got.ResponseFormat.Type, ShouldEqual, "json_object")
				So(got.Messages, ShouldHaveLength, 2)
				So(got.Attachments, ShouldBeEmpty)

				var user map[string]any
				So(json.Unmarshal([]byte(got.Messages[1].Content), &user), ShouldBeNil)
				So(user["student_name"], ShouldEqual, "Dana")
				So(user["category_hint"], ShouldEqual, "research")
				So(user["profile_summary"], ShouldResemble, map[string]any{
					"total": float64(1), "by_category": map[string]any{"social": float64(1)},
				})
			})
		})

		Convey("When a proof is attached", func() {
			var got chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&got)
				replyWith(`{}`)(w, r)
			}))
			defer srv.Close()

			withProof := in
			withProof.EncodedProof = "cG5n"
			_, err := newTestClient(srv.URL).Classify(ctx, withProof)

			Convey("Then it should be sent as an image attachment", func() {
				So(err, ShouldBeNil)
				So(got.Attachments, ShouldResemble, []attachment{{Type: "image", Data: "cG5n", MIMEType: "image/png"}})
			})
		})

		Convey("When the reply is partial and fenced", func() {
			srv := httptest.NewServer(replyWith("```json\n{\"category\":\"sports\",\"scale\":\"planetary\"}\n```"))
			defer srv.Close()

			res, err := newTestClient(srv.URL).Classify(ctx, in)

			Convey("Then missing and invalid keys should be back-filled", func() {
				So(err, ShouldBeNil)
				So(res.Category, ShouldEqual, model.CategorySports)
				So(res.Scale, ShouldEqual, model.ScaleSchool)
				So(res.TotalScore, ShouldEqual, 40.0)
				So(res.Feedback, ShouldEqual, "Solid achievement.")
			})
		})

		Convey("When the server returns an error status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Classify(ctx, in)

			Convey("Then ErrRemoteStatus should be returned", func() {
				So(errors.Is(err, classify.ErrRemoteStatus), ShouldBeTrue)
			})
		})

		Convey("When the body is malformed", func() {
			cases := map[string]http.HandlerFunc{
				"not json": func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("<html>")) },
				"no choices": func(w http.ResponseWriter, _ *http.Request) {
					_, _ = w.Write([]byte(`{"choices":[]}`))
				},
				"content not an object": replyWith(`["research"]`),
				"content not json":      replyWith(`Sure! Here is the result`),
			}
			for _, h := range cases {
				srv := httptest.NewServer(h)
				_, err := newTestClient(srv.URL).Classify(ctx, in)
				srv.Close()

				So(errors.Is(err, classify.ErrMalformedResponse), ShouldBeTrue)
			}
		})

		Convey("When the server is too slow", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer srv.Close()
			defer close(release)

			c := NewClient(Config{APIKey: "k", URL: srv.URL, Timeout: 50 * time.Millisecond})
			_, err := c.Classify(ctx, in)

			Convey("Then the call should fail with a deadline error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When no API key is configured", func() {
			c := NewClient(Config{})

			_, err := c.Classify(ctx, in)

			Convey("Then it should fail without a request", func() {
				So(errors.Is(err, classify.ErrMissingAPIKey), ShouldBeTrue)
				So(c.cfg.URL, ShouldEqual, DefaultURL)
				So(c.cfg.Timeout, ShouldEqual, DefaultTimeout)
			})
		})
	})
}

func TestClientInAnalyzer(t *testing.T) {
	ctx := context.Background()
	req := classify.Request{Title: "City football tournament captain", CategoryHint: model.CategorySports}
	enabled := classify.Config{Provider: "openrouter", APIKey: "k"}

	Convey("Given the client as the remote strategy of an analyzer", t, func() {
		Convey("When the server does not answer in time", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer srv.Close()
			defer close(release)

			c := NewClient(Config{APIKey: "k", URL: srv.URL, Timeout: 50 * time.Millisecond})
			a := classify.NewAnalyzer(enabled, c)
			start := time.Now()
			res := a.Analyze(ctx, req)

			Convey("Then the local result should be returned promptly", func() {
				So(a.Strategies(), ShouldResemble, []string{"openrouter", "local_fallback"})
				So(res.Provider, ShouldEqual, classify.ProviderLocal)
				So(res.Category, ShouldEqual, model.CategorySports)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
			})
		})

		Convey("When the reply carries out of range numbers", func() {
			srv := httptest.NewServer(replyWith(`{"category":"sports","duration_months":1e20,"total_score":1e20}`))
			defer srv.Close()

			res := classify.NewAnalyzer(enabled, newTestClient(srv.URL)).Analyze(ctx, req)

			Convey("Then they should be clamped", func() {
				So(res.Provider, ShouldEqual, classify.ProviderOpenRouter)
				So(res.DurationMonths, ShouldEqual, 12)
				So(res.TotalScore, ShouldEqual, classify.MaxTotalScore)
			})
		})
	})
}

func TestCleanMarkdownWrapper(t *testing.T) {
	Convey("Given model output", t, func() {
		So(cleanMarkdownWrapper("```json\n{\"a\":1}\n```"), ShouldEqual, `{"a":1}`)
		So(cleanMarkdownWrapper("```\n{}\n```"), ShouldEqual, `{}`)
		So(cleanMarkdownWrapper("  {} "), ShouldEqual, `{}`)
	})
}
