package backoffice

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/landledger/backoffice/internal/apperr"
	"github.com/landledger/backoffice/internal/audit"
	"github.com/landledger/backoffice/internal/geo"
	"github.com/landledger/backoffice/internal/landcode"
	"github.com/landledger/backoffice/internal/landrecord"
	"github.com/landledger/backoffice/internal/review"
	"github.com/landledger/backoffice/internal/verification"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 64 << 20
)

type Handlers struct {
	deps      Deps
	allocator *landcode.Allocator
}

func (h *Handlers) children(w http.ResponseWriter, r *http.Request, level geo.Level, parentID string) {
	nodes, err := h.deps.Lands.Children(r.Context(), level, parentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if nodes == nil {
		nodes = []geo.Node{}
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (h *Handlers) ListStates(w http.ResponseWriter, r *http.Request) {
	h.children(w, r, geo.LevelState, "")
}

func (h *Handlers) ListDistricts(w http.ResponseWriter, r *http.Request) {
	h.children(w, r, geo.LevelDistrict, chi.URLParam(r, "id"))
}

var districtKinds = map[string]geo.Level{
	"mandals": geo.LevelMandal,
	"sectors": geo.LevelSector,
	"towns":   geo.LevelTown,
}

// ListDistrictChildren serves mandals, sectors or towns of a district.
func (h *Handlers) ListDistrictChildren(w http.ResponseWriter, r *http.Request) {
	level, ok := districtKinds[chi.URLParam(r, "kind")]
	if !ok {
		writeError(w, apperr.Invalid("kind", "must be mandals, sectors or towns"))
		return
	}
	h.children(w, r, level, chi.URLParam(r, "id"))
}

func (h *Handlers) ListMandalVillages(w http.ResponseWriter, r *http.Request) {
	h.children(w, r, geo.LevelMandalVillage, chi.URLParam(r, "id"))
}

func (h *Handlers) ListSectorVillages(w http.ResponseWriter, r *http.Request) {
	h.children(w, r, geo.LevelSectorVillage, chi.URLParam(r, "id"))
}

type prefixResponse struct {
	Prefix   string `json:"prefix"`
	State    string `json:"state"`
	District string `json:"district"`
	Town     string `json:"town"`
}

// resolveTown walks the cascade down to a town so the prefix is derived from
// the names the land service holds for those ids.
func (h *Handlers) resolveTown(r *http.Request, stateID, districtID, townID string) (*geo.Selection, error) {
	switch {
	case strings.TrimSpace(stateID) == "":
		return nil, apperr.Invalid("state_id", "state is required")
	case strings.TrimSpace(districtID) == "":
		return nil, apperr.Invalid("district_id", "district is required")
	case strings.TrimSpace(townID) == "":
		return nil, apperr.Invalid("town_id", "town is required")
	}

	ctx := r.Context()
	sel := geo.NewSelection(h.deps.Lands, geo.ViewTowns)
	if err := sel.LoadStates(ctx); err != nil {
		return nil, err
	}
	steps := []struct {
		level geo.Level
		id    string
	}{
		{geo.LevelState, stateID},
		{geo.LevelDistrict, districtID},
		{geo.LevelTown, townID},
	}
	for _, step := range steps {
		if _, ok := findID(sel.Options(step.level), step.id); !ok {
			return nil, apperr.Invalid(step.level.String()+"_id", fmt.Sprintf("unknown %s %s", step.level, step.id))
		}
		if err := sel.Select(ctx, step.level, step.id); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func findID(nodes []geo.Node, id string) (geo.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return geo.Node{}, false
}

// GetPrefix derives the land-code prefix for a state, district and town.
func (h *Handlers) GetPrefix(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := h.resolveTown(r, q.Get("state"), q.Get("district"), q.Get("town"))
	if err != nil {
		writeError(w, err)
		return
	}
	state, district, town := sel.Names()
	writeJSON(w, http.StatusOK, prefixResponse{
		Prefix:   landcode.DerivePrefix(state, district, town),
		State:    state,
		District: district,
		Town:     town,
	})
}

type generateResponse struct {
	Message       string              `json:"message,omitempty"`
	Data          []landcode.LandCode `json:"data"`
	Prefix        string              `json:"prefix"`
	ExpectedCodes []string            `json:"expected_codes"`
}

// GenerateLandCodes validates and forwards a batch. A missing prefix is
// derived from the batch's state, district and town.
func (h *Handlers) GenerateLandCodes(w http.ResponseWriter, r *http.Request) {
	var b landcode.Batch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&b); err != nil {
		writeError(w, apperr.Invalid("body", "invalid JSON body"))
		return
	}

	if strings.TrimSpace(b.Prefix) == "" && b.StateID != "" && b.DistrictID != "" && b.TownID != "" {
		// Reject the rest of the batch before walking the cascade upstream.
		check := b
		check.Prefix = "derived"
		if err := check.Validate(); err != nil {
			writeError(w, err)
			return
		}
		sel, err := h.resolveTown(r, b.StateID, b.DistrictID, b.TownID)
		if err != nil {
			writeError(w, err)
			return
		}
		b.Prefix = landcode.DefaultBatch(sel, b.Count).Prefix
	}

	res, err := h.allocator.Generate(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	prefix := strings.TrimSpace(b.Prefix)
	data := res.Codes
	if data == nil {
		data = []landcode.LandCode{}
	}
	writeJSON(w, http.StatusCreated, generateResponse{
		Message:       res.Message,
		Data:          data,
		Prefix:        prefix,
		ExpectedCodes: landcode.ExpectedCodes(prefix, b.Count),
	})
}

func (h *Handlers) ListLandCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	codes, err := h.allocator.List(r.Context(), landcode.Filter{
		StateID:    q.Get("state_id"),
		DistrictID: q.Get("district_id"),
		TownID:     q.Get("town_id"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if codes == nil {
		codes = []landcode.LandCode{}
	}
	writeJSON(w, http.StatusOK, codes)
}

func (h *Handlers) GetLandCodeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.allocator.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func flattenAll(records []landrecord.Record) []*landrecord.Form {
	forms := make([]*landrecord.Form, 0, len(records))
	for i := range records {
		forms = append(forms, landrecord.Flatten(&records[i]))
	}
	return forms
}

// ListLands returns the verification queue as flat forms.
func (h *Handlers) ListLands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := landrecord.Query{
		StateID:    q.Get("state"),
		DistrictID: q.Get("district"),
		Price:      q.Get("price"),
		Area:       q.Get("area"),
		Comparison: landrecord.Comparison(q.Get("comparison")),
	}
	if err := query.Validate(); err != nil {
		writeError(w, err)
		return
	}
	start := time.Now()
	records, err := h.deps.Lands.ListLands(r.Context(), query)
	addServerTiming(w, "lands", start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flattenAll(records))
}

func (h *Handlers) GetLandReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	records, err := h.deps.Lands.LandReport(r.Context())
	addServerTiming(w, "report", start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flattenAll(records))
}

// reviewRequest is the edited form plus the reviewer's checks. Multipart
// requests carry it as JSON in the "review" part next to the attachments.
type reviewRequest struct {
	Values   map[string]string    `json:"values"`
	Lists    map[string][]string  `json:"lists"`
	Visitors []landrecord.Visitor `json:"visitors"`
	Checks   map[string]string    `json:"checks"`
}

type reviewResponse struct {
	LandID            string              `json:"land_id"`
	AdminVerification verification.Status `json:"admin_verification"`
}

// SaveReview writes an edited land record back with its derived status.
func (h *Handlers) SaveReview(w http.ResponseWriter, r *http.Request) {
	landID := chi.URLParam(r, "land_id")

	req, files, err := decodeReview(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		for _, f := range files {
			if c, ok := f.Content.(io.Closer); ok {
				c.Close()
			}
		}
	}()

	opts := []review.Option{review.WithReviewer(r.Header.Get("X-Reviewer"))}
	if h.deps.Recorder != nil {
		opts = append(opts, review.WithRecorder(h.deps.Recorder))
	}
	ws := review.New(h.deps.Lands, opts...)

	// The stored admin_verification is replaced by the derived one on save.
	form := &landrecord.Form{LandID: landID, Visitors: req.Visitors}
	for k, v := range req.Values {
		if k != landrecord.KeyAdminVerification {
			form.Set(k, v)
		}
	}
	for k, items := range req.Lists {
		form.SetList(k, items)
	}
	ws.OpenForm(form)

	for field, raw := range req.Checks {
		m, err := verification.ParseMark(raw)
		if err != nil {
			writeError(w, apperr.Invalid("checks."+field, `mark must be "ok" or "fail"`))
			return
		}
		if err := ws.SetCheck(field, m); err != nil {
			writeError(w, err)
			return
		}
	}

	start := time.Now()
	status, err := ws.Save(r.Context(), files)
	addServerTiming(w, "save", start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{LandID: landID, AdminVerification: status})
}

func decodeReview(w http.ResponseWriter, r *http.Request) (*reviewRequest, []landrecord.File, error) {
	var req reviewRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
			return nil, nil, apperr.Invalid("body", "invalid JSON body")
		}
		return &req, nil, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, nil, apperr.Invalid("body", "invalid multipart body")
	}
	if err := json.Unmarshal([]byte(r.FormValue("review")), &req); err != nil {
		return nil, nil, apperr.Invalid("review", "invalid JSON in review part")
	}

	var files []landrecord.File
	for _, field := range landrecord.FileFields {
		for _, fh := range r.MultipartForm.File[field] {
			f, err := openPart(fh)
			if err != nil {
				for _, opened := range files {
					opened.Content.(io.Closer).Close()
				}
				return nil, nil, err
			}
			files = append(files, landrecord.File{Field: field, Filename: fh.Filename, Content: f})
		}
	}
	return &req, files, nil
}

func openPart(fh *multipart.FileHeader) (multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	return f, nil
}

// DeleteLand permanently removes a land record. It needs ?confirm=true.
func (h *Handlers) DeleteLand(w http.ResponseWriter, r *http.Request) {
	landID := chi.URLParam(r, "land_id")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	ws := review.New(h.deps.Lands)
	if err := ws.Delete(r.Context(), landID, confirmed); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetReviewHistory lists locally recorded review decisions for a land.
func (h *Handlers) GetReviewHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		http.Error(w, "Audit trail is not configured", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.deps.History.History(r.Context(), chi.URLParam(r, "land_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []audit.ReviewLog{}
	}
	writeJSON(w, http.StatusOK, rows)
}
