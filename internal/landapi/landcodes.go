package landapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/landledger/backoffice/internal/codec"
	"github.com/landledger/backoffice/internal/landcode"
)

// Ensure Client implements landcode.Service.
var _ landcode.Service = (*Client)(nil)

type landCodeRow struct {
	ID         codec.FlexString `json:"id"`
	Code       codec.FlexString `json:"code"`
	Status     codec.FlexString `json:"status"`
	StateID    codec.FlexString `json:"state_id"`
	DistrictID codec.FlexString `json:"district_id"`
	TownID     codec.FlexString `json:"town_id"`
}

func (r landCodeRow) toLandCode() landcode.LandCode {
	return landcode.LandCode{
		ID:         r.ID.String(),
		Code:       r.Code.String(),
		Status:     r.Status.String(),
		StateID:    r.StateID.String(),
		DistrictID: r.DistrictID.String(),
		TownID:     r.TownID.String(),
	}
}

func toLandCodes(rows []landCodeRow) []landcode.LandCode {
	out := make([]landcode.LandCode, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toLandCode())
	}
	return out
}

// ListLandCodes fetches the codes allotted under the given scope.
func (c *Client) ListLandCodes(ctx context.Context, f landcode.Filter) ([]landcode.LandCode, error) {
	q := url.Values{}
	if f.StateID != "" {
		q.Set("state_id", f.StateID)
	}
	if f.DistrictID != "" {
		q.Set("district_id", f.DistrictID)
	}
	if f.TownID != "" {
		q.Set("town_id", f.TownID)
	}

	var rows []landCodeRow
	err := c.getList(ctx, "list land codes", "/land-codes", q, func(raw json.RawMessage) error {
		var derr error
		rows, derr = decodeList[landCodeRow](raw)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return toLandCodes(rows), nil
}

// GenerateLandCodes asks the land service to allot a batch of codes.
func (c *Client) GenerateLandCodes(ctx context.Context, b landcode.Batch) (*landcode.GenerateResult, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	var resp struct {
		Message string        `json:"message"`
		Data    []landCodeRow `json:"data"`
	}
	err = c.do(ctx, request{
		op:          "generate land codes",
		method:      http.MethodPost,
		path:        "/land-codes/generate",
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &landcode.GenerateResult{Message: resp.Message, Codes: toLandCodes(resp.Data)}, nil
}

// LandCodeStats fetches the per-status code counts.
func (c *Client) LandCodeStats(ctx context.Context) (*landcode.Stats, error) {
	var stats landcode.Stats
	err := c.do(ctx, request{op: "land code stats", method: http.MethodGet, path: "/land-codes/stats"}, &stats)
	if err != nil {
		return nil, err
	}
	if stats.Stats == nil {
		stats.Stats = []landcode.StatusCount{}
	}
	return &stats, nil
}
