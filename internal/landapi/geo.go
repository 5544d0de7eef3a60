package landapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/landledger/backoffice/internal/codec"
	"github.com/landledger/backoffice/internal/geo"
)

// Ensure Client implements geo.Source.
var _ geo.Source = (*Client)(nil)

// geoNode is a location row as the land service sends it.
type geoNode struct {
	ID   codec.FlexString `json:"id"`
	Code codec.FlexString `json:"code"`
	Name codec.Name       `json:"name"`
}

// childPath returns the endpoint listing level's nodes under parentID.
func childPath(level geo.Level, parentID string) (string, error) {
	p := url.PathEscape(parentID)
	switch level {
	case geo.LevelState:
		return "/states", nil
	case geo.LevelDistrict:
		return "/states/" + p + "/districts", nil
	case geo.LevelMandal:
		return "/districts/" + p + "/mandals", nil
	case geo.LevelSector:
		return "/districts/" + p + "/sectors", nil
	case geo.LevelTown:
		return "/districts/" + p + "/towns", nil
	case geo.LevelMandalVillage:
		return "/mandals/" + p + "/villages", nil
	case geo.LevelSectorVillage:
		return "/sectors/" + p + "/villages", nil
	}
	return "", fmt.Errorf("unknown geo level %d", level)
}

// Children fetches the nodes of level under parentID with names normalised.
func (c *Client) Children(ctx context.Context, level geo.Level, parentID string) ([]geo.Node, error) {
	if level != geo.LevelState && parentID == "" {
		return []geo.Node{}, nil
	}
	path, err := childPath(level, parentID)
	if err != nil {
		return nil, err
	}

	var rows []geoNode
	err = c.getList(ctx, "list "+level.String()+"s", path, nil, func(raw json.RawMessage) error {
		var derr error
		rows, derr = decodeList[geoNode](raw)
		return derr
	})
	if err != nil {
		return nil, err
	}

	nodes := make([]geo.Node, 0, len(rows))
	for _, r := range rows {
		nodes = append(nodes, geo.Node{ID: r.ID.String(), Code: r.Code.String(), Name: r.Name.String()})
	}
	return nodes, nil
}
