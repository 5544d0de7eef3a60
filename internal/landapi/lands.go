package landapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/landledger/backoffice/internal/landrecord"
	"github.com/landledger/backoffice/internal/review"
)

var _ review.Store = (*Client)(nil)

// ListLands fetches the verification queue.
func (c *Client) ListLands(ctx context.Context, q landrecord.Query) ([]landrecord.Record, error) {
	return c.listRecords(ctx, "list lands", "/land", q.Values())
}

// LandReport fetches the read-only full land report.
func (c *Client) LandReport(ctx context.Context) ([]landrecord.Record, error) {
	return c.listRecords(ctx, "land report", "/land/report", nil)
}

func (c *Client) listRecords(ctx context.Context, op, path string, q url.Values) ([]landrecord.Record, error) {
	var records []landrecord.Record
	err := c.getList(ctx, op, path, q, func(raw json.RawMessage) error {
		var derr error
		records, derr = decodeList[landrecord.Record](raw)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateLand writes a review payload back as multipart/form-data.
func (c *Client) UpdateLand(ctx context.Context, p *landrecord.Payload) error {
	body, contentType, err := p.Encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		op:          "update land " + p.LandID,
		method:      http.MethodPut,
		path:        "/land/" + url.PathEscape(p.LandID),
		body:        body,
		contentType: contentType,
	}, nil)
}

// DeleteLand removes a land record permanently.
func (c *Client) DeleteLand(ctx context.Context, landID string) error {
	return c.do(ctx, request{
		op:     "delete land " + landID,
		method: http.MethodDelete,
		path:   "/land/data/" + url.PathEscape(landID),
	}, nil)
}
