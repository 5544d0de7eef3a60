package landapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/geo"
	"github.com/landledger/backoffice/internal/landcode"
	"github.com/landledger/backoffice/internal/landrecord"
	"github.com/landledger/backoffice/internal/utils"
	"github.com/landledger/backoffice/internal/verification"
)

const testToken = "opaque-token-123"

// newTestServer mounts handlers on a chi router and fails any request that
// does not carry the expected bearer token.
func newTestServer(t *testing.T, mount func(r chi.Router)) (*Client, *httptest.Server) {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if got := req.Header.Get("Authorization"); got != "Bearer "+testToken {
				t.Errorf("Authorization = %q", got)
			}
			if req.Header.Get("X-Request-ID") == "" {
				t.Errorf("missing X-Request-ID")
			}
			next.ServeHTTP(w, req)
		})
	})
	mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL + "/", Tokens: StaticToken(testToken)})
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestChildrenNormalisesNames(t *testing.T) {
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Get("/states/{id}/districts", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "id") != "1" {
				t.Errorf("state id = %s", chi.URLParam(req, "id"))
			}
			w.Write([]byte(`[{"id":5,"code":"ADB","name":"{\"name\":\"Adilabad\"}"},{"id":"6","name":"Nirmal"}]`))
		})
		r.Get("/districts/{id}/towns", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"data":[{"id":9,"name":"Adilabad"}]}`))
		})
	})

	nodes, err := c.Children(context.Background(), geo.LevelDistrict, "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || nodes[0] != (geo.Node{ID: "5", Code: "ADB", Name: "Adilabad"}) || nodes[1].Name != "Nirmal" {
		t.Errorf("nodes = %+v", nodes)
	}

	towns, err := c.Children(context.Background(), geo.LevelTown, "5")
	if err != nil || len(towns) != 1 || towns[0].ID != "9" {
		t.Errorf("towns = %+v, %v", towns, err)
	}
}

func TestChildrenEmptyParentSkipsNetwork(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Tokens: StaticToken(testToken)})
	nodes, err := c.Children(context.Background(), geo.LevelMandalVillage, "")
	if err != nil || len(nodes) != 0 {
		t.Fatalf("got %v, %v", nodes, err)
	}
}

func TestUpstreamErrorMessages(t *testing.T) {
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Post("/land-codes/generate", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Codes already generated for this prefix"})
		})
		r.Get("/land-codes/stats", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("<html>oops</html>"))
		})
	})

	_, err := c.GenerateLandCodes(context.Background(), landcode.Batch{Prefix: "TELADIADI", Count: 2, StateID: "1", DistrictID: "5", TownID: "9"})
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusConflict || ue.Message != "Codes already generated for this prefix" {
		t.Fatalf("generate error = %#v", err)
	}

	_, err = c.LandCodeStats(context.Background())
	if !errors.As(err, &ue) || ue.Message != "request failed with status 500" {
		t.Fatalf("stats error = %#v", err)
	}
}

func TestGenerateLandCodesSendsBatch(t *testing.T) {
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Post("/land-codes/generate", func(w http.ResponseWriter, req *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
				return
			}
			if body["prefix"] != "TELADIADI" || body["count"] != float64(2) || body["town_id"] != "9" {
				t.Errorf("body = %v", body)
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"message": "created",
				"data":    []map[string]any{{"id": 1, "code": "TELADIADI01"}, {"id": 2, "code": "TELADIADI02"}},
			})
		})
	})

	res, err := c.GenerateLandCodes(context.Background(), landcode.Batch{Prefix: "TELADIADI", Count: 2, StateID: "1", DistrictID: "5", TownID: "9"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "created" || len(res.Codes) != 2 || res.Codes[1].Code != "TELADIADI02" || res.Codes[0].ID != "1" {
		t.Errorf("result = %+v", res)
	}
}

func TestListLandCodesAndStats(t *testing.T) {
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Get("/land-codes", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("town_id") != "9" || req.URL.Query().Has("state_id") {
				t.Errorf("query = %s", req.URL.RawQuery)
			}
			w.Write([]byte(`{"data":[{"id":1,"code":"TELADIADI01","status":"available","town_id":9}]}`))
		})
		r.Get("/land-codes/stats", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"total":10,"stats":[{"status":"available","count":7,"percentage":70}]}`))
		})
	})

	codes, err := c.ListLandCodes(context.Background(), landcode.Filter{TownID: "9"})
	if err != nil || len(codes) != 1 || codes[0].TownID != "9" || codes[0].Status != "available" {
		t.Fatalf("codes = %+v, %v", codes, err)
	}
	stats, err := c.LandCodeStats(context.Background())
	if err != nil || stats.Total != 10 || stats.Stats[0].Percentage != 70 {
		t.Fatalf("stats = %+v, %v", stats, err)
	}
}

func TestListLandsAndUpdate(t *testing.T) {
	var gotFields map[string]string
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Get("/land", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("district") != "5" {
				t.Errorf("query = %s", req.URL.RawQuery)
			}
			w.Write([]byte(`{"data":[{"land_id":"L-1","land_location":{"district":"Adilabad"},"land_details":{"water_source":"well, canal"}}]}`))
		})
		r.Put("/land/{land_id}", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "land_id") != "L-1" {
				t.Errorf("land id = %s", chi.URLParam(req, "land_id"))
			}
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
				return
			}
			gotFields = map[string]string{}
			for k, v := range req.MultipartForm.Value {
				gotFields[k] = v[0]
			}
			if files := req.MultipartForm.File[landrecord.FileLandPhoto]; len(files) != 1 {
				t.Errorf("land photos = %d", len(files))
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
		})
	})

	records, err := c.ListLands(context.Background(), landrecord.Query{DistrictID: "5"})
	if err != nil || len(records) != 1 {
		t.Fatalf("records = %v, %v", records, err)
	}
	form := landrecord.Flatten(&records[0])
	payload, err := landrecord.EncodePayload(form, verification.StatusVerified, []landrecord.File{
		{Field: landrecord.FileLandPhoto, Filename: "p.jpg", Content: strings.NewReader("jpeg")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateLand(context.Background(), payload); err != nil {
		t.Fatal(err)
	}
	if gotFields["admin_verification"] != "verified" || gotFields["water_source"] != "well, canal" || gotFields["district"] != "Adilabad" {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestListLandsToleratesMalformedSection(t *testing.T) {
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Get("/land", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"data":[` +
				`{"land_id":"L1","land_location":{"district":"Adilabad"},"office_work":{"mediator_name":"Suresh"}},` +
				`{"land_id":"L2","land_location":{"district":"Nirmal"},"office_work":"null","dispute_details":[]}]}`))
		})
	})

	records, err := c.ListLands(context.Background(), landrecord.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	bad := landrecord.Flatten(&records[1])
	if v, _ := bad.Get("district"); v != "Nirmal" {
		t.Errorf("district = %q", v)
	}
	if bad.Has(landrecord.KeyMediatorName) || bad.Has("dispute_type") {
		t.Errorf("malformed sections produced keys: %+v", bad.Values)
	}
	if v, _ := landrecord.Flatten(&records[0]).Get(landrecord.KeyMediatorName); v != "Suresh" {
		t.Errorf("mediator_name = %q", v)
	}
}

func TestDeleteLandAndReport(t *testing.T) {
	deleted := ""
	c, _ := newTestServer(t, func(r chi.Router) {
		r.Delete("/land/data/{land_id}", func(w http.ResponseWriter, req *http.Request) {
			deleted = chi.URLParam(req, "land_id")
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/land/report", func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"data":null}`))
		})
	})
	if err := c.DeleteLand(context.Background(), "L-9"); err != nil {
		t.Fatal(err)
	}
	if deleted != "L-9" {
		t.Errorf("deleted = %q", deleted)
	}
	records, err := c.LandReport(context.Background())
	if err != nil || records == nil || len(records) != 0 {
		t.Errorf("report = %#v, %v", records, err)
	}
}

func TestContextTokenForwarding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer caller-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Request-ID") != "req-1" {
			t.Errorf("X-Request-ID = %q", r.Header.Get("X-Request-ID"))
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	ctx := utils.WithRequestID(utils.WithToken(context.Background(), "caller-token"), "req-1")
	if _, err := c.Children(ctx, geo.LevelState, ""); err != nil {
		t.Fatal(err)
	}

	_, err := c.Children(context.Background(), geo.LevelState, "")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
